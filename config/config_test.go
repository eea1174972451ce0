package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/periodhub/personakit/config"
	_ "github.com/periodhub/personakit/config/builders"
	"github.com/periodhub/personakit/pipeline"
)

const pipelineYAML = `
pipeline:
  name: recommend
  nodes:
    - type: filter
      config:
        filters:
          - type: exclude
          - type: category
          - type: rule
            expr: 'item.score > 0.1'
    - type: strategy.fanout
      config:
        timeout: 2
        sources:
          - type: content_based
            weight: 0.4
          - type: popularity
            weight: 0.2
    - type: rerank.diversity_novelty
    - type: rerank.topn
      config:
        n: 10
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildPipelineFromYAML(t *testing.T) {
	cfg, err := pipeline.LoadFromYAML(writeConfig(t, "pipeline.yaml", pipelineYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "recommend" {
		t.Errorf("name = %s, want recommend", cfg.Pipeline.Name)
	}
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig() error = %v", err)
	}

	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(p.Nodes))
	}

	wantKinds := []pipeline.Kind{
		pipeline.KindFilter,
		pipeline.KindStrategy,
		pipeline.KindReRank,
		pipeline.KindReRank,
	}
	for i, want := range wantKinds {
		if got := p.Nodes[i].Kind(); got != want {
			t.Errorf("node %d kind = %v, want %v", i, got, want)
		}
	}
}

func TestBuildPipelineFromJSON(t *testing.T) {
	jsonConfig := `{
  "pipeline": {
    "name": "minimal",
    "nodes": [
      {"type": "rerank.topn", "config": {"n": 5}}
    ]
  }
}`
	cfg, err := pipeline.LoadFromJSON(writeConfig(t, "pipeline.json", jsonConfig))
	if err != nil {
		t.Fatalf("LoadFromJSON() error = %v", err)
	}
	p, err := cfg.BuildPipeline(config.DefaultFactory())
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	if len(p.Nodes) != 1 {
		t.Errorf("nodes = %d, want 1", len(p.Nodes))
	}
}

func TestValidateRejectsUnknownNodeType(t *testing.T) {
	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "strategy.quantum"}}

	err := config.ValidatePipelineConfig(cfg)
	if err == nil {
		t.Fatal("unknown node type should fail validation")
	}
	if !strings.Contains(err.Error(), "strategy.quantum") {
		t.Errorf("error should name the offending type, got %v", err)
	}
}

func TestCollaborativeRequiresProgrammaticConstruction(t *testing.T) {
	yamlConfig := `
pipeline:
  name: bad
  nodes:
    - type: strategy.fanout
      config:
        sources:
          - type: collaborative
            weight: 0.3
`
	cfg, err := pipeline.LoadFromYAML(writeConfig(t, "bad.yaml", yamlConfig))
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if _, err := cfg.BuildPipeline(config.DefaultFactory()); err == nil {
		t.Error("collaborative strategy cannot be built from config alone")
	}
}

func TestSupportedTypes(t *testing.T) {
	types := config.SupportedTypes()
	want := []string{"filter", "rerank.diversity_novelty", "rerank.topn", "strategy.fanout"}
	for _, w := range want {
		found := false
		for _, typ := range types {
			if typ == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("SupportedTypes() missing %q, got %v", w, types)
		}
	}
}
