package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"chanfilter/condition"
	nt "chanfilter/entity"
	"chanfilter/grammar"
	"chanfilter/query"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <expression>",
		Short: "Check one filter expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer ap.close()

			text := strings.Join(args, " ")
			expr, err := grammar.NewLexer(ap.catalog).Tokenize(text)
			if err != nil {
				return err
			}

			res := grammar.NewValidator(ap.catalog).Validate(expr)
			if res.Valid() {
				fmt.Println("valid")
				return nil
			}

			printProblem(os.Stdout, expr, res.Problem)
			return res.Problem
		},
	}
}

// printProblem writes the expression with a caret under the bad token.
func printProblem(w io.Writer, expr nt.Expression, problem *grammar.Problem) {

	var line, mark strings.Builder
	for i, tok := range expr {
		if i > 0 {
			line.WriteString(" ")
			mark.WriteString(" ")
		}
		text := tok.Text()
		line.WriteString(text)

		fill := " "
		if i == problem.Pos {
			fill = "^"
		}
		mark.WriteString(strings.Repeat(fill, len([]rune(text))))
	}

	fmt.Fprintln(w, line.String())
	fmt.Fprintln(w, mark.String())
	fmt.Fprintln(w, problem.Reason)
}

// expressions tokenizes and validates each arg as one expression.
func expressions(lx *grammar.Lexer, vld *grammar.Validator, args []string) (set nt.FilterSet, err error) {

	set = nt.FilterSet{}
	for i, text := range args {
		var expr nt.Expression
		expr, err = lx.Tokenize(text)
		if err != nil {
			err = errors.Wrapf(err, "expression %d", i)
			return
		}

		res := vld.Validate(expr)
		if !res.Valid() {
			err = errors.Wrapf(res.Problem, "expression %d %q", i, text)
			return
		}
		set = append(set, expr)
	}
	return
}

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <expression>...",
		Short: "Print the backend condition for expressions, one per arg",
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer ap.close()

			set, err := expressions(grammar.NewLexer(ap.catalog), grammar.NewValidator(ap.catalog), args)
			if err != nil {
				return err
			}

			data, err := condition.Marshal(condition.New(ap.catalog).Compile(set))
			if err != nil {
				return err
			}

			fmt.Println(string(data))
			return nil
		},
	}
}

func newDecompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decompile <condition-json>",
		Short: "Print the expressions a backend condition was compiled from",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer ap.close()

			cond, err := condition.Parse([]byte(args[0]))
			if err != nil {
				return err
			}

			set, err := condition.New(ap.catalog).DecompileSet(cond)
			if err != nil {
				return err
			}

			for _, expr := range set {
				fmt.Println(expr.String())
			}
			return nil
		},
	}
}

func newQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <expression>...",
		Short: "Print records request parameters for expressions and search ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ap, err := setup(cmd, false)
			if err != nil {
				return err
			}
			defer ap.close()

			req, err := request(cmd, ap, args)
			if err != nil {
				return err
			}

			countOnly, _ := cmd.Flags().GetBool("count")
			vals, err := req.Values()
			if countOnly {
				vals, err = req.CountValues()
			}
			if err != nil {
				return err
			}

			fmt.Println(vals.Encode())
			return nil
		},
	}

	searchFlags(cmd, 0)
	cmd.Flags().Bool("count", false, "only the parameters for a count")
	return cmd
}

// searchFlags adds the flags read by request.
func searchFlags(cmd *cobra.Command, pageSize int) {
	cmd.Flags().String("from", "", "only records after, as "+query.TimeFormat)
	cmd.Flags().String("to", "", "only records before, as "+query.TimeFormat)
	cmd.Flags().Int("min-shot", 0, "lowest shot number")
	cmd.Flags().Int("max-shot", 0, "highest shot number")
	cmd.Flags().Int("max-shots", 0, "cap on records returned when not paging")
	cmd.Flags().StringSlice("order", nil, "sort by channel, as name or name:desc")
	cmd.Flags().Int("offset", 0, "records to skip")
	cmd.Flags().Int("size", pageSize, "page size, 0 for all")
}

// request builds a records request from expressions and search flags.
// With no expressions the session's configured filters are used.
func request(cmd *cobra.Command, ap *app, args []string) (req query.Request, err error) {

	sn, err := ap.session()
	if err != nil {
		return
	}

	if len(args) > 0 {
		var set nt.FilterSet
		set, err = expressions(sn.Lexer(), grammar.NewValidator(ap.catalog), args)
		if err != nil {
			return
		}
		req.Filter = sn.Compiler().Compile(set)
	} else {
		req.Filter = sn.Compiled()
	}

	flags := cmd.Flags()
	for _, name := range []string{"from", "to"} {
		text, _ := flags.GetString(name)
		if text == "" {
			continue
		}
		var ts time.Time
		ts, err = time.Parse(query.TimeFormat, text)
		if err != nil {
			err = errors.Wrapf(err, "bad --%s", name)
			return
		}
		if name == "from" {
			req.Search.DateRange.From = ts
		} else {
			req.Search.DateRange.To = ts
		}
	}

	if flags.Changed("min-shot") {
		shot, _ := flags.GetInt("min-shot")
		req.Search.ShotnumRange.Min = &shot
	}
	if flags.Changed("max-shot") {
		shot, _ := flags.GetInt("max-shot")
		req.Search.ShotnumRange.Max = &shot
	}

	req.Search.MaxShots, _ = flags.GetInt("max-shots")
	req.Page.Offset, _ = flags.GetInt("offset")
	req.Page.Size, _ = flags.GetInt("size")

	req.Sorts, err = sorts(cmd, ap)
	return
}

// sorts reads the order flag, terms given as name or name:desc.
func sorts(cmd *cobra.Command, ap *app) (srts []nt.Sort, err error) {

	order, _ := cmd.Flags().GetStringSlice("order")
	for _, term := range order {
		name, dir, _ := strings.Cut(term, ":")
		if _, ok := ap.catalog.Lookup(name); !ok {
			err = errors.Errorf("cannot order by unknown channel %q", name)
			return
		}
		srts = append(srts, nt.Sort{Field: name, Desc: strings.EqualFold(dir, "desc")})
	}
	return
}
