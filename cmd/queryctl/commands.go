// cmd/queryctl/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/AI-Template-SDK/senso-query-engine/internal/api"
	"github.com/AI-Template-SDK/senso-query-engine/internal/app"
	"github.com/AI-Template-SDK/senso-query-engine/internal/models"
	"github.com/AI-Template-SDK/senso-query-engine/services"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newQueryCmd() *cobra.Command {
	var (
		companyID, platform, prompt, queryType string
		keywords                               []string
	)

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Send one prompt to one platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			company, err := uuid.Parse(companyID)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				if err := seedKeywords(cmd.Context(), a, company, keywords); err != nil {
					return err
				}
				result := a.Engine.ExecuteQuery(cmd.Context(), services.QueryRequest{
					CompanyID:  company,
					Platform:   platform,
					PromptText: prompt,
					QueryType:  queryType,
				})

				out := map[string]interface{}{"query": result}
				if result.Status == models.QueryStatusCompleted && result.Stored != nil {
					processing, err := a.Processor.ProcessResponse(cmd.Context(), company, result.Stored)
					if err != nil {
						return fmt.Errorf("failed to process response: %w", err)
					}
					out["processing"] = processing
				}
				return printJSON(cmd.OutOrStdout(), out)
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company ID (UUID)")
	cmd.Flags().StringVar(&platform, "platform", "", "platform slug or alias")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt text")
	cmd.Flags().StringVar(&queryType, "type", "", "query type label")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "brand keywords to track (in-memory store only)")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("prompt")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var (
		companyID, templateID, templateText, queryType string
		platforms, keywords                            []string
		variables                                      map[string]string
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve a template and send it to several platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			company, err := uuid.Parse(companyID)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}
			if templateID == "" && templateText == "" {
				return fmt.Errorf("one of --template or --template-text is required")
			}

			return withApp(cmd.Context(), func(a *app.App) error {
				ctx := cmd.Context()
				if err := seedKeywords(ctx, a, company, keywords); err != nil {
					return err
				}

				tmplID, err := resolveTemplate(ctx, a, templateID, templateText)
				if err != nil {
					return err
				}

				vars := services.TemplateVariables{}
				for k, v := range variables {
					vars[k] = v
				}
				req := services.BatchRequest{
					CompanyID:  company,
					TemplateID: tmplID,
					Platforms:  platforms,
					Variables:  vars,
					QueryType:  queryType,
				}
				results, err := a.Engine.ExecuteBatch(ctx, req)
				if err != nil {
					return err
				}

				processing := []*services.ProcessingResult{}
				for _, r := range results {
					if r.Status != models.QueryStatusCompleted || r.Stored == nil {
						continue
					}
					pr, err := a.Processor.ProcessResponse(ctx, company, r.Stored)
					if err != nil {
						fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to process response for %s: %v\n", r.Platform, err)
						continue
					}
					processing = append(processing, pr)
				}
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{"queries": results, "processing": processing})
			})
		},
	}

	cmd.Flags().StringVar(&companyID, "company", "", "company ID (UUID)")
	cmd.Flags().StringVar(&templateID, "template", "", "stored template ID (UUID)")
	cmd.Flags().StringVar(&templateText, "template-text", "", "ad-hoc template text with {placeholders}")
	cmd.Flags().StringSliceVar(&platforms, "platforms", nil, "platform slugs or aliases")
	cmd.Flags().StringToStringVar(&variables, "var", nil, "template variable as name=value (repeatable)")
	cmd.Flags().StringVar(&queryType, "type", "", "query type label")
	cmd.Flags().StringSliceVar(&keywords, "keywords", nil, "brand keywords to track (in-memory store only)")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("platforms")
	return cmd
}

func newPlatformsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "platforms",
		Short: "List active platforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(a *app.App) error {
				platforms, err := a.Engine.ListPlatforms(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), platforms)
			})
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var (
		companyID string
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show a company's most recent queries",
		RunE: func(cmd *cobra.Command, args []string) error {
			company, err := uuid.Parse(companyID)
			if err != nil {
				return fmt.Errorf("invalid --company: %w", err)
			}
			return withApp(cmd.Context(), func(a *app.App) error {
				history, err := a.Engine.GetQueryHistory(cmd.Context(), company, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), history)
			})
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company ID (UUID)")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "schema [query|batch]",
		Short:     "Print the JSON Schema of the API request bodies",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"query", "batch"},
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas, err := api.RequestSchemas()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				return printJSON(cmd.OutOrStdout(), schemas)
			}
			raw, ok := schemas[args[0]]
			if !ok {
				return fmt.Errorf("unknown schema %q", args[0])
			}
			return printJSON(cmd.OutOrStdout(), json.RawMessage(raw))
		},
	}
}

// seedKeywords only writes to the in-memory store; a database is managed elsewhere.
func seedKeywords(ctx context.Context, a *app.App, companyID uuid.UUID, keywords []string) error {
	if len(keywords) == 0 {
		return nil
	}
	if !a.InMemory {
		return fmt.Errorf("--keywords is only supported with the in-memory store")
	}
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if err := a.Repos.KeywordRepo.Create(ctx, &models.Keyword{CompanyID: companyID, Keyword: k, IsActive: true}); err != nil {
			return fmt.Errorf("failed to store keyword %q: %w", k, err)
		}
	}
	return nil
}

func resolveTemplate(ctx context.Context, a *app.App, templateID, templateText string) (uuid.UUID, error) {
	if templateID != "" {
		id, err := uuid.Parse(templateID)
		if err != nil {
			return uuid.Nil, fmt.Errorf("invalid --template: %w", err)
		}
		return id, nil
	}
	tmpl := &models.QueryTemplate{
		Name:     "ad-hoc",
		Template: templateText,
		Category: "adhoc",
		IsActive: true,
	}
	if err := a.Repos.TemplateRepo.Create(ctx, tmpl); err != nil {
		return uuid.Nil, fmt.Errorf("failed to store template: %w", err)
	}
	return tmpl.ID, nil
}
