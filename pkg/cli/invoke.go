package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dockhand/dockhand/pkg/decode"
	"github.com/dockhand/dockhand/pkg/invoke"
)

func newInvokeCmd(st *state) *cobra.Command {
	var (
		paramFlags []string
		paramsFile string
		kindFlag   string
		queryFlag  string
	)
	cmd := &cobra.Command{
		Use:   "invoke <category> <operation>",
		Short: "Invoke an operation and print its result",
		Long: `Invoke an operation and print its result.

Parameter values given with --param are parsed as JSON when possible
and fall back to plain strings, so --param all=true sends a boolean
while --param name=web1 sends a string. A value of @- reads the
parameter from stdin as a raw byte stream.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := collectParams(paramFlags, paramsFile, cmd.InOrStdin())
			if err != nil {
				return err
			}
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}

			conn, err := st.connect()
			if err != nil {
				return err
			}
			client, err := invoke.NewClient(conn, args[0],
				invoke.WithVersion(st.apiVersion),
				invoke.WithLogger(st.log),
			)
			if err != nil {
				return err
			}

			result, err := client.Invoke(cmd.Context(), invoke.Request{
				Op:     args[1],
				Params: params,
				Kind:   kind,
			})
			if err != nil {
				return err
			}
			return writeResult(cmd.OutOrStdout(), result, queryFlag)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVarP(&paramFlags, "param", "p", nil, "operation parameter as name=value (repeatable)")
	flags.StringVar(&paramsFile, "params-file", "", "YAML file of parameter values")
	flags.StringVar(&kindFlag, "kind", "value", "result shape: value, string, or stream")
	flags.StringVarP(&queryFlag, "query", "q", "", "JSONPath expression applied to the decoded result")
	return cmd
}

// collectParams merges the params file with --param flags; flags win.
func collectParams(flags []string, file string, stdin io.Reader) (map[string]any, error) {
	params := map[string]any{}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &params); err != nil {
			return nil, fmt.Errorf("params file %s: %w", file, err)
		}
	}
	for _, f := range flags {
		name, raw, ok := strings.Cut(f, "=")
		if !ok || name == "" {
			return nil, fmt.Errorf("malformed --param %q, want name=value", f)
		}
		if raw == "@-" {
			params[name] = stdin
			continue
		}
		params[name] = parseParamValue(raw)
	}
	return params, nil
}

// parseParamValue interprets raw as JSON when it is valid JSON, so
// numbers, booleans, arrays, and objects keep their types. Anything
// else is a plain string.
func parseParamValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}

func parseKind(s string) (decode.Kind, error) {
	switch s {
	case "", "value":
		return decode.KindValue, nil
	case "string":
		return decode.KindString, nil
	case "stream":
		return decode.KindStream, nil
	}
	return "", fmt.Errorf("unknown result kind %q", s)
}

// writeResult renders the invocation outcome. Streams are copied
// verbatim; decoded values print as indented JSON, optionally filtered
// through a JSONPath expression first.
func writeResult(out io.Writer, result any, query string) error {
	switch v := result.(type) {
	case *invoke.Stream:
		defer v.Close()
		_, err := io.Copy(out, v)
		return err
	case string:
		_, err := io.WriteString(out, v)
		if err == nil && !strings.HasSuffix(v, "\n") {
			_, err = io.WriteString(out, "\n")
		}
		return err
	default:
		if query != "" {
			expr, err := jp.ParseString(query)
			if err != nil {
				return fmt.Errorf("query %q: %w", query, err)
			}
			matches := expr.Get(result)
			if len(matches) == 1 {
				result = matches[0]
			} else {
				result = matches
			}
		}
		_, err := io.WriteString(out, oj.JSON(result, 2)+"\n")
		return err
	}
}
