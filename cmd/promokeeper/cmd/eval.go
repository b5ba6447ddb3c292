package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/solatis/promokeeper/internal/rules"
)

var evalFlags struct {
	total    float64
	category string
	quantity float64
	shipping float64
}

var evalCmd = &cobra.Command{
	Use:   "eval RULE",
	Short: "Tokenize, parse and evaluate a rule offline",
	Long: `Runs a rule through the lexer, parser and evaluator and prints each stage.

Example:
  promokeeper eval 'PERCENT 10 IF TOTAL > 200' --total 350 --category Food --quantity 2 --shipping 15`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := rules.EvalContext{
			Total:    evalFlags.total,
			Category: evalFlags.category,
			Quantity: evalFlags.quantity,
			Shipping: evalFlags.shipping,
		}
		return runEval(cmd.OutOrStdout(), rules.NewEngine(logger), args[0], ctx)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().Float64Var(&evalFlags.total, "total", 0, "order total")
	evalCmd.Flags().StringVar(&evalFlags.category, "category", "", "product category")
	evalCmd.Flags().Float64Var(&evalFlags.quantity, "quantity", 0, "item quantity")
	evalCmd.Flags().Float64Var(&evalFlags.shipping, "shipping", 0, "shipping cost")
}

// runEval prints the token stream, the AST and the JSON result of source.
// Parse errors are printed and returned.
func runEval(w io.Writer, engine *rules.Engine, source string, ctx rules.EvalContext) error {
	if ctx.Total < 0 || ctx.Shipping < 0 || ctx.Quantity < 0 {
		return fmt.Errorf("total, shipping and quantity must not be negative")
	}

	tokens := rules.Tokenize(source)
	names := make([]string, len(tokens))
	for i, tok := range tokens {
		names[i] = tok.String()
	}
	fmt.Fprintf(w, "tokens: %s\n", strings.Join(names, " "))

	rule, err := rules.Parse(tokens)
	if err != nil {
		fmt.Fprintf(w, "error:  %v\n", err)
		return err
	}
	fmt.Fprintf(w, "ast:    %s\n", rule)

	result, err := engine.Apply(source, ctx)
	if err != nil {
		fmt.Fprintf(w, "error:  %v\n", err)
		return err
	}

	out, err := json.Marshal(result)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "result: %s\n", out)
	return nil
}
