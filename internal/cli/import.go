package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/house-market/internal/property"
	"github.com/evcraddock/house-market/internal/schema"
)

func newImportCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Create listings from a YAML file",
		Long: `Create listings from a YAML file. The file holds either a list of
properties or a mapping with a "properties" list. Each entry is checked
against the listing schema before anything is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("opening %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()
			return runImport(f, dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "validate only, create nothing")

	return cmd
}

// importDoc is the mapping form of an import file.
type importDoc struct {
	Properties []interface{} `yaml:"properties"`
}

// parseImport decodes YAML listings into JSON documents and validates each
// one. Every failure is reported, not only the first.
func parseImport(r io.Reader, v *schema.Validator) ([]json.RawMessage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	var entries []interface{}
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, fmt.Errorf("no properties in file")
	}
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		err = root.Content[0].Decode(&entries)
	case yaml.MappingNode:
		var doc importDoc
		err = root.Content[0].Decode(&doc)
		entries = doc.Properties
	default:
		return nil, fmt.Errorf("expected a list of properties")
	}
	if err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no properties in file")
	}

	docs := make([]json.RawMessage, 0, len(entries))
	var failed int
	for i, e := range entries {
		body, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		if err := v.Validate(schema.Property, body); err != nil {
			fmt.Fprintf(os.Stderr, "entry %d: %v\n", i+1, err)
			failed++
			continue
		}
		docs = append(docs, body)
	}
	if failed > 0 {
		return nil, fmt.Errorf("%d of %d entries invalid", failed, len(entries))
	}
	return docs, nil
}

func runImport(r io.Reader, dryRun bool) error {
	v, err := schema.New()
	if err != nil {
		return err
	}

	docs, err := parseImport(r, v)
	if err != nil {
		return err
	}

	if dryRun {
		if isJSON() {
			return printJSON(map[string]int{"valid": len(docs)})
		}
		fmt.Printf("✓ %d properties valid.\n", len(docs))
		return nil
	}

	c := newAPIClient()
	created := make([]*property.Property, 0, len(docs))
	for i, doc := range docs {
		p, err := c.CreateProperty(doc)
		if err != nil {
			return fmt.Errorf("creating entry %d (%d created so far): %w", i+1, len(created), err)
		}
		created = append(created, p)
		if !isJSON() {
			fmt.Printf("✓ #%d %s\n", p.ID, p.FullAddress())
		}
	}

	if isJSON() {
		return printJSON(created)
	}
	fmt.Printf("\nImported %d properties.\n", len(created))
	return nil
}
