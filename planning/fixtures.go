package planning

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var fixturesYAML []byte

type fixtures struct {
	Zoning []zoningFixture `yaml:"zoning"`
	Plans  []planFixture   `yaml:"plans"`
}

type zoningFixture struct {
	City   string `yaml:"city"`
	Zoning string `yaml:"zoning"`
	Answer string `yaml:"answer"`
}

type planFixture struct {
	Number  string `yaml:"number"`
	Details string `yaml:"details"`
}

func loadFixtures() (fx fixtures, err error) {
	if err = yaml.Unmarshal(fixturesYAML, &fx); err != nil {
		return fx, fmt.Errorf("failed to parse planning fixtures: %w", err)
	}
	return fx, nil
}
