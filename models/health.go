package models

type HealthGetResponse struct {
	OK    bool   `json:"ok"`
	Time  int64  `json:"time"`
	Port  int    `json:"port"`
	Model string `json:"model"`
	VS    string `json:"vs"`
}
