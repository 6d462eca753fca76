package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	minicompass "github.com/kailas-cloud/minicompass/pkg/sdk"
)

// fieldValue holds the --field/--value pair of the lookup commands.
type fieldValue struct {
	field, value string
}

func (fv *fieldValue) register(cmd *cobra.Command, required bool) {
	cmd.Flags().StringVarP(&fv.field, "field", "f", "", "field to match (dotted paths allowed)")
	cmd.Flags().StringVarP(&fv.value, "value", "v", "", "value to match, coerced to a number or boolean when it looks like one")
	if required {
		_ = cmd.MarkFlagRequired("field")
		_ = cmd.MarkFlagRequired("value")
	}
}

func documents(opts *globalOptions, collection string) (*minicompass.DocumentService, error) {
	c, err := opts.client()
	if err != nil {
		return nil, err
	}
	return c.Documents(collection), nil
}

func newListCmd(opts *globalOptions) *cobra.Command {
	var (
		fv          fieldValue
		limit, skip int
	)
	cmd := &cobra.Command{
		Use:   "list <collection>",
		Short: "List documents, optionally filtered on one field",
		Example: `  compassctl list students
  compassctl list students --field age --value 20 --limit 10`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			lo := minicompass.ListOptions{}.Skip(skip)
			if cmd.Flags().Changed("limit") {
				lo = lo.Limit(limit)
			}
			if cmd.Flags().Changed("field") || cmd.Flags().Changed("value") {
				lo = lo.Where(fv.field, fv.value)
			}
			docs, err := svc.List(cmd.Context(), lo)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), docs)
		},
	}
	fv.register(cmd, false)
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of documents (server default when unset)")
	cmd.Flags().IntVar(&skip, "skip", 0, "number of documents to skip")
	return cmd
}

func newFindCmd(opts *globalOptions) *cobra.Command {
	var fv fieldValue
	cmd := &cobra.Command{
		Use:   "find <collection>",
		Short: "Show the first document matching a field value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			doc, err := svc.Find(cmd.Context(), fv.field, fv.value)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), doc)
		},
	}
	fv.register(cmd, true)
	return cmd
}

func newExistsCmd(opts *globalOptions) *cobra.Command {
	var fv fieldValue
	cmd := &cobra.Command{
		Use:   "exists <collection>",
		Short: "Report whether a document matches a field value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			ok, err := svc.Exists(cmd.Context(), fv.field, fv.value)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"exists": ok})
		},
	}
	fv.register(cmd, true)
	return cmd
}

func newDupCmd(opts *globalOptions) *cobra.Command {
	var fv fieldValue
	cmd := &cobra.Command{
		Use:     "dup <collection>",
		Aliases: []string{"has-duplicate"},
		Short:   "Count documents sharing a field value",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			res, err := svc.HasDuplicate(cmd.Context(), fv.field, fv.value)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), res)
		},
	}
	fv.register(cmd, true)
	return cmd
}

func newInsertCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "insert <collection> [json|-]",
		Short: "Insert a document and print its identifier",
		Long:  "Insert a document. The body is the JSON argument, or stdin when it is \"-\" or absent.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			id, err := svc.Insert(cmd.Context(), body)
			if err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]string{"insertedId": id})
		},
	}
}

func newUpdateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "update <collection> <id> [json|-]",
		Short:   "Set fields on a document",
		Example: `  compassctl update students 65f1c0de2a9b4e1f3c8d7a60 '{"address.city":"Laval"}'`,
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[2:])
			if err != nil {
				return err
			}
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			if err := svc.Update(cmd.Context(), args[1], body); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"success": true})
		},
	}
}

func newReplaceCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <collection> <id> [json|-]",
		Short: "Replace the whole body of a document",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := readBody(cmd.InOrStdin(), args[2:])
			if err != nil {
				return err
			}
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			if err := svc.Replace(cmd.Context(), args[1], body); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"success": true})
		},
	}
}

func newDeleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <collection> <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a document",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := documents(opts, args[0])
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), args[1]); err != nil {
				return err
			}
			return opts.print(cmd.OutOrStdout(), map[string]bool{"success": true})
		},
	}
}

// readBody parses a JSON object from the optional argument or stdin.
func readBody(stdin io.Reader, args []string) (minicompass.Document, error) {
	var raw []byte
	if len(args) == 0 || args[0] == "-" {
		if f, ok := stdin.(*os.File); ok {
			if st, err := f.Stat(); err == nil && st.Mode()&os.ModeCharDevice != 0 {
				return nil, errors.New("no document given: pass JSON as an argument or pipe it on stdin")
			}
		}
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		raw = b
	} else {
		raw = []byte(args[0])
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc minicompass.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("document must be a JSON object: %w", err)
	}
	if doc == nil {
		return nil, errors.New("document must be a JSON object")
	}
	return doc, nil
}
