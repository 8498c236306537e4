// Command schema regenerates the JSON schema for the feedbook config file.
// The result is embedded by pkg/config and used to verify loaded configs.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"

	"feedbook/pkg/config"
)

func main() {
	schema := jsonschema.Reflect(&config.Config{})

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal schema: %v", err)
	}

	// default output lands next to the config package via go:generate
	outputPath := "schema.json"
	if len(os.Args) > 1 {
		outputPath = os.Args[1]
	}

	if err := os.WriteFile(outputPath, data, 0o600); err != nil { //nolint:gosec // schema file is not sensitive
		log.Fatalf("failed to write schema file: %v", err)
	}

	fmt.Printf("config schema written to %s\n", outputPath)
}
