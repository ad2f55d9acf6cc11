package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fieldlens/fieldlens/core/extractor"
	"github.com/fieldlens/fieldlens/core/model"
	"github.com/fieldlens/fieldlens/core/validate"
	"github.com/fieldlens/fieldlens/providers/ingest/webpage"
	"github.com/fieldlens/fieldlens/providers/observability"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run one extraction and print the structured result",
	Long: `Runs one extraction task against a provider and prints the result as JSON.

The task file (YAML or JSON) declares the mode and its inputs:

  mode: schema
  provider: openai
  model_id: gpt-4o-mini
  schema_fields:
    - {id: 1, name: invoice_number, type: string}
    - {id: 2, name: amount, type: number, description: total in USD}

or, for few-shot:

  mode: few_shot
  instruction: Extract medication mentions.
  examples:
    - text: Took 200mg ibuprofen.
      extractions:
        - {extraction_class: medication, extraction_text: ibuprofen}

Clinical mode needs only "mode: clinical". Source text comes from --text,
--file, or --url (fetched and converted to Markdown).

Examples:
  # Schema extraction from a file
  extract --task invoice.yaml --file invoice.txt

  # Few-shot extraction from a web page
  extract --task meds.yaml --url example.com/note --model gemini-2.5-flash --provider gemini

  # Clean a clinical note inline
  extract --task clinical.yaml --text "Pt c/o chest pain x2 days..."`,
	RunE: runExtract,
}

func init() {
	f := extractCmd.Flags()
	f.String("task", "", "task file (YAML or JSON) declaring the extraction")
	f.String("text", "", "source text")
	f.String("file", "", "read source text from a file")
	f.String("url", "", "fetch source text from a URL (converted to Markdown)")
	f.String("provider", "", "provider: gemini, openai, anthropic, glm (overrides task file)")
	f.String("model", "", "model id (overrides task file)")
	f.String("api-key", "", "provider API key (falls back to the provider env var)")
	f.Bool("raw", false, "also print the raw model output")
	f.Bool("validate", false, "check a schema-mode result against the declared fields")
	_ = extractCmd.MarkFlagRequired("task")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	request, err := loadTask(cmd)
	if err != nil {
		return err
	}

	request.SourceText, err = sourceText(cmd)
	if err != nil {
		return err
	}

	ext := extractor.New(extractor.WithObserver(observer))
	outcome, err := ext.SubmitWithRetry(cmd.Context(), request, streamProgress(cmd), cfg.Extract.RetryAttempts)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}

	return printOutcome(cmd, request, outcome)
}

// loadTask reads the task file and applies flag overrides.
func loadTask(cmd *cobra.Command) (*model.ExtractionRequest, error) {
	taskPath, _ := cmd.Flags().GetString("task")
	raw, err := os.ReadFile(taskPath)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var request model.ExtractionRequest
	if strings.EqualFold(filepath.Ext(taskPath), ".json") {
		if err := json.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("parse task file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(raw, &request); err != nil {
			return nil, fmt.Errorf("parse task file: %w", err)
		}
	}

	if provider, _ := cmd.Flags().GetString("provider"); provider != "" {
		request.Provider = model.Vendor(provider)
	}
	if modelID, _ := cmd.Flags().GetString("model"); modelID != "" {
		request.ModelID = modelID
	}
	if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
		request.Credential = apiKey
	}

	return &request, nil
}

func sourceText(cmd *cobra.Command) (string, error) {
	text, _ := cmd.Flags().GetString("text")
	file, _ := cmd.Flags().GetString("file")
	url, _ := cmd.Flags().GetString("url")

	switch {
	case text != "":
		return text, nil
	case file != "":
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read source file: %w", err)
		}
		return string(raw), nil
	case url != "":
		observer.Info(cmd.Context(), "fetching page", observability.String("url", url))
		markdown, err := webpage.Fetch(cmd.Context(), url, webpage.Options{})
		if err != nil {
			return "", fmt.Errorf("fetch url: %w", err)
		}
		return markdown, nil
	default:
		return "", fmt.Errorf("one of --text, --file, or --url is required")
	}
}

// streamProgress surfaces streaming activity on stderr without touching the
// JSON result on stdout.
func streamProgress(cmd *cobra.Command) extractor.ProgressFunc {
	seen := 0
	return func(p extractor.Progress) {
		switch p.State {
		case extractor.StateStreaming:
			if len(p.RawText) > seen {
				seen = len(p.RawText)
				fmt.Fprint(os.Stderr, ".")
			}
		case extractor.StateParsing:
			if seen > 0 {
				fmt.Fprintln(os.Stderr)
			}
		}
	}
}

func printOutcome(cmd *cobra.Command, request *model.ExtractionRequest, outcome *extractor.Outcome) error {
	showRaw, _ := cmd.Flags().GetBool("raw")
	checkSchema, _ := cmd.Flags().GetBool("validate")

	payload := map[string]any{"id": outcome.ID}
	if outcome.Result.OK() {
		payload["data"] = outcome.Result.Value
		if checkSchema && request.Mode == model.ModeSchema {
			if err := validate.Fields(outcome.Result.Value, request.SchemaFields); err != nil {
				payload["schema_error"] = err.Error()
			}
		}
	} else {
		payload["parse_failure"] = outcome.Result.Failure
	}
	if showRaw {
		payload["raw_llm_output"] = outcome.RawText
	}
	if outcome.Usage != nil {
		payload["usage"] = outcome.Usage
	}

	encoded, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Println(string(encoded))
	return nil
}
