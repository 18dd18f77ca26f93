// ABOUTME: The patch subcommand: applies text patch operations to a flow file.
// ABOUTME: Operations come from flags or a JSON file; writes in place are atomic.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/2389-research/pipeflow/flow"
	"github.com/2389-research/pipeflow/flow/patch"
)

func (a *app) patchCmd() *cobra.Command {
	var ops []string
	var opsFile string
	var write bool

	cmd := &cobra.Command{
		Use:   "patch FILE",
		Short: "Apply structural edits to a flow file",
		Long: "Applies one or more operations in order, each against the result of the previous one.\n" +
			"Operations are JSON objects with an \"op\" field, for example:\n\n" +
			"  pipeflow patch flow.xml --op '{\"op\":\"rename\",\"oldName\":\"A\",\"newName\":\"B\"}'\n\n" +
			"Text outside the edited spans is kept byte for byte. The result is printed unless -w is given.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if write && args[0] == "-" {
				return fmt.Errorf("cannot write back to stdin")
			}

			operations, err := decodeOperations(ops, opsFile)
			if err != nil {
				return err
			}
			if len(operations) == 0 {
				return fmt.Errorf("no operations given: use --op or --ops")
			}

			doc, err := a.document(args[0])
			if err != nil {
				return err
			}
			text, err := applyAll(doc, operations)
			if err != nil {
				return err
			}

			if !write {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if text == doc.Text {
				a.logger.Info("no changes", "file", args[0])
				return nil
			}
			if err := writeFileAtomic(args[0], []byte(text)); err != nil {
				return err
			}
			a.logger.Info("patched", "file", args[0], "operations", len(operations))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&ops, "op", nil, "operation as a JSON object (repeatable)")
	cmd.Flags().StringVar(&opsFile, "ops", "", "file holding a JSON array of operations")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to FILE")
	return cmd
}

// applyAll applies operations in order; the first rejection aborts the run
// and nothing is written.
func applyAll(doc flow.DocumentContext, operations []patch.Operation) (string, error) {
	for i, op := range operations {
		text, err := patch.Apply(doc, op)
		if err != nil {
			return "", fmt.Errorf("operation %d (%s): %w", i+1, op.Kind(), err)
		}
		doc.Text = text
	}
	return doc.Text, nil
}

func decodeOperations(inline []string, file string) ([]patch.Operation, error) {
	var out []patch.Operation
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read operations: %w", err)
		}
		var raw []json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("decode %s: expected a JSON array of operations: %w", file, err)
		}
		for i, r := range raw {
			op, err := patch.DecodeOperation(r)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", file, i, err)
			}
			out = append(out, op)
		}
	}
	for _, s := range inline {
		op, err := patch.DecodeOperation([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("--op %s: %w", s, err)
		}
		out = append(out, op)
	}
	return out, nil
}

// writeFileAtomic replaces path via a temp file in the same directory,
// keeping the original file mode.
func writeFileAtomic(path string, data []byte) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := bytes.NewReader(data).WriteTo(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
