/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"

	"github.com/ssargent/bitrec/pkg/bitstream"
	"github.com/ssargent/bitrec/pkg/codec"
	"github.com/ssargent/bitrec/pkg/config"
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect <payload-file>",
	Short: "Decode an encoded payload against a configured schema",
	Long: `Decode an encoded payload against a schema from the configuration and
print the field values. The payload is read from a file, or given
inline as hex with --hex.

Payloads written by an older generation of the schema decode with the
newer fields at their defaults.

Examples:
  bitrec inspect payload.bin --schema profile
  bitrec inspect --schema profile --hex 0da20f00002c00676f2314
  bitrec inspect delta.bin --schema profile --diff`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, ok := cmd.Context().Value("config").(*config.Config)
		if !ok {
			cmd.Println("Error: config not found in context")
			os.Exit(1)
		}

		schemaName, _ := cmd.Flags().GetString("schema")
		asDiff, _ := cmd.Flags().GetBool("diff")
		isHex, _ := cmd.Flags().GetBool("hex")

		if err := runInspect(cmd.OutOrStdout(), cfg, schemaName, args[0], isHex, asDiff); err != nil {
			cmd.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().StringP("schema", "s", "profile", "Schema to decode the payload with")
	inspectCmd.Flags().Bool("diff", false, "Treat the payload as a delta and apply it to the schema defaults")
	inspectCmd.Flags().Bool("hex", false, "Treat the argument as inline hex instead of a file path")
}

func runInspect(out io.Writer, cfg *config.Config, schemaName, arg string, isHex, asDiff bool) error {
	def, ok := cfg.Schema(schemaName)
	if !ok {
		return fmt.Errorf("unknown schema %q", schemaName)
	}

	var payload []byte
	var err error
	if isHex {
		cleaned := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, arg)
		payload, err = hex.DecodeString(cleaned)
		if err != nil {
			return fmt.Errorf("invalid hex payload: %w", err)
		}
	} else {
		payload, err = os.ReadFile(arg)
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}
	}
	if len(payload) == 0 {
		return fmt.Errorf("empty payload")
	}

	rec, err := def.Build()
	if err != nil {
		return fmt.Errorf("invalid schema %q: %w", schemaName, err)
	}

	stream := bitstream.FromBytes(payload)
	if asDiff {
		err = rec.DeserializeDiff(stream)
	} else {
		err = rec.Deserialize(stream)
	}
	if err != nil {
		return fmt.Errorf("failed to decode payload: %w", err)
	}

	fmt.Fprintf(out, "schema: %s  payload: %d bytes  generation: %d\n", def.Name, len(payload), rec.DataVersion())
	for i := range def.Fields {
		f := rec.Field(i)
		if f.Kind() == codec.KindSeparator {
			fmt.Fprintf(out, "  ---- version ----\n")
			continue
		}
		fmt.Fprintf(out, "  %-16s %-8s %s\n", def.Fields[i].Name, kindText(f), valueText(f))
	}

	return nil
}

// kindText renders a field's type the way a schema file declares it.
func kindText(f *codec.Field) string {
	switch f.Kind() {
	case codec.KindBool:
		return "bool"
	case codec.KindString:
		return "string"
	case codec.KindNumber:
		if f.Signed() {
			return fmt.Sprintf("i%d", f.Width())
		}
		return fmt.Sprintf("u%d", f.Width())
	case codec.KindBits:
		return fmt.Sprintf("bits%d", f.Width())
	case codec.KindArray:
		if f.Signed() {
			return fmt.Sprintf("i%d[%d]", f.Width(), f.Len())
		}
		return fmt.Sprintf("u%d[%d]", f.Width(), f.Len())
	}
	return f.Kind().String()
}

func valueText(f *codec.Field) string {
	switch f.Kind() {
	case codec.KindBool:
		return strconv.FormatBool(f.Bool())
	case codec.KindString:
		return strconv.Quote(f.Str())
	case codec.KindNumber, codec.KindBits:
		if f.Signed() {
			return strconv.FormatInt(f.Int(), 10)
		}
		return strconv.FormatUint(f.Uint(), 10)
	case codec.KindArray:
		parts := make([]string, f.Len())
		for i := range parts {
			if f.Signed() {
				parts[i] = strconv.FormatInt(f.IntAt(i), 10)
			} else {
				parts[i] = strconv.FormatUint(f.At(i), 10)
			}
		}
		return "[" + strings.Join(parts, " ") + "]"
	}
	return ""
}
