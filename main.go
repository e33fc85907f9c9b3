package main

import (
	"fmt"
	"log"
	"os"

	"github.com/9lbw/bloggen/cmd"
	"github.com/9lbw/bloggen/internal/model"
	"gopkg.in/yaml.v2"
)

const siteConfigFile = "site.yaml"

func loadSiteConfig(filename string) (*model.SiteData, error) {
	yamlFile, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return model.DefaultSiteData(), nil
		}
		return nil, fmt.Errorf("error reading site config %s: %w", filename, err)
	}

	site := model.DefaultSiteData()
	if err := yaml.Unmarshal(yamlFile, site); err != nil {
		return nil, fmt.Errorf("error unmarshalling site config %s: %w", filename, err)
	}
	return site, nil
}

func main() {
	site, err := loadSiteConfig(siteConfigFile)
	if err != nil {
		log.Fatalf("Error loading site configuration: %v", err)
	}
	cmd.Execute(site)
}
