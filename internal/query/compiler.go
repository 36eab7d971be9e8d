// Package query implements the boolean query compiler: it parses the
// expr/term/atom/HINT/QUOTED grammar into a model.QueryPlan ready for
// term-index evaluation.
package query

import (
	"strings"

	"github.com/standardbeagle/blocksearch/internal/errors"
	"github.com/standardbeagle/blocksearch/internal/model"
	"github.com/standardbeagle/blocksearch/internal/tokenize"
)

// Options controls compilation: which analyzer settings apply to unquoted
// words, and whether whitespace without an explicit operator means AND
// (strict) or OR (the repo's recall-biased default).
type Options struct {
	Tokenizer  *tokenize.Tokenizer
	TokenizeOp tokenize.Options
	ExactMode  bool
	Strict     bool
}

// bucketSet is the flat required/optional/excluded accumulation a (sub)expr
// produces. Parenthesized groups compile to their own bucketSet and are
// merged into the enclosing scope by the group's combinator and negation.
type bucketSet struct {
	required map[string]model.Term
	optional map[string]model.Term
	excluded map[string]model.Term
	hints    []model.Hint
}

func newBucketSet() bucketSet {
	return bucketSet{
		required: map[string]model.Term{},
		optional: map[string]model.Term{},
		excluded: map[string]model.Term{},
	}
}

type compiler struct {
	tokens []token
	pos    int
	raw    string
	opts   Options
}

// Compile parses raw into a QueryPlan. Unquoted words are tokenized with
// opts.Tokenizer/opts.TokenizeOp unless opts.ExactMode is set, in which case
// each word becomes a single lowercase exact Term.
func Compile(raw string, opts Options) (model.QueryPlan, error) {
	tokens, err := lex(raw)
	if err != nil {
		return model.QueryPlan{}, err
	}

	c := &compiler{tokens: tokens, raw: raw, opts: opts}
	set, err := c.parseExpr()
	if err != nil {
		return model.QueryPlan{}, err
	}

	if c.peek().kind != tokEOF {
		return model.QueryPlan{}, errors.NewQuerySyntaxError(raw, c.peek().offset, "unexpected token after expression")
	}

	terms := map[string]model.Term{}
	for k, v := range set.required {
		terms[k] = v
	}
	for k, v := range set.optional {
		terms[k] = v
	}
	for k, v := range set.excluded {
		terms[k] = v
	}

	return model.QueryPlan{
		Raw:       raw,
		Terms:     terms,
		Required:  set.required,
		Excluded:  set.excluded,
		Optional:  set.optional,
		ExactMode: opts.ExactMode,
		Hints:     set.hints,
	}, nil
}

func (c *compiler) peek() token { return c.tokens[c.pos] }

func (c *compiler) advance() token {
	t := c.tokens[c.pos]
	if c.pos < len(c.tokens)-1 {
		c.pos++
	}
	return t
}

// parseExpr implements: expr := term ( (AND|OR|' ') term )*
func (c *compiler) parseExpr() (bucketSet, error) {
	set := newBucketSet()
	first := true

	for {
		combinator := c.implicitCombinator()
		if !first {
			switch c.peek().kind {
			case tokAnd:
				combinator = "AND"
				c.advance()
			case tokOr:
				combinator = "OR"
				c.advance()
			case tokRParen, tokEOF:
				return set, nil
			}
		}

		if first {
			// The first operand has no operator on its left, so it takes the
			// one that follows it: "a AND b" requires both a and b.
			operand := newBucketSet()
			if err := c.parseTerm(&operand, "AND"); err != nil {
				return set, err
			}
			switch c.peek().kind {
			case tokAnd:
				combinator = "AND"
			case tokOr:
				combinator = "OR"
			}
			mergeGroup(&set, operand, combinator, false)
		} else if err := c.parseTerm(&set, combinator); err != nil {
			return set, err
		}
		first = false

		if c.peek().kind == tokRParen || c.peek().kind == tokEOF {
			return set, nil
		}
	}
}

func (c *compiler) implicitCombinator() string {
	if c.opts.Strict {
		return "AND"
	}
	return "OR"
}

// parseTerm implements: term := NOT? atom
func (c *compiler) parseTerm(set *bucketSet, combinator string) error {
	negate := false
	if c.peek().kind == tokNot {
		negate = true
		c.advance()
	}
	return c.parseAtom(set, combinator, negate)
}

// parseAtom implements: atom := QUOTED | WORD | '(' expr ')' | HINT
func (c *compiler) parseAtom(set *bucketSet, combinator string, negate bool) error {
	tok := c.peek()

	switch tok.kind {
	case tokQuoted:
		c.advance()
		term := model.Term{Text: strings.ToLower(tok.text), IsExact: true}
		assign(set, term, combinator, negate)
		return nil

	case tokWord:
		c.advance()
		for _, term := range c.analyze(tok.text) {
			assign(set, term, combinator, negate)
		}
		return nil

	case tokHint:
		c.advance()
		set.hints = append(set.hints, model.Hint{Kind: tok.hintK, Value: tok.hintV})
		return nil

	case tokLParen:
		c.advance()
		inner, err := c.parseExpr()
		if err != nil {
			return err
		}
		if c.peek().kind != tokRParen {
			return errors.NewQuerySyntaxError(c.raw, c.peek().offset, "expected closing parenthesis")
		}
		c.advance()
		mergeGroup(set, inner, combinator, negate)
		return nil

	default:
		return errors.NewQuerySyntaxError(c.raw, tok.offset, "expected a term, quoted phrase, hint, or parenthesized expression")
	}
}

func (c *compiler) analyze(word string) []model.Term {
	if c.opts.ExactMode {
		return []model.Term{{Text: strings.ToLower(word), IsExact: true}}
	}
	if c.opts.Tokenizer == nil {
		return []model.Term{{Text: strings.ToLower(word)}}
	}
	return c.opts.Tokenizer.Tokenize(word, c.opts.TokenizeOp)
}

func assign(set *bucketSet, term model.Term, combinator string, negate bool) {
	if term.Text == "" {
		return
	}
	if negate {
		delete(set.required, term.Text)
		delete(set.optional, term.Text)
		set.excluded[term.Text] = term
		return
	}
	if _, alreadyExcluded := set.excluded[term.Text]; alreadyExcluded {
		return
	}
	if combinator == "AND" {
		set.required[term.Text] = term
		delete(set.optional, term.Text)
		return
	}
	if _, alreadyRequired := set.required[term.Text]; alreadyRequired {
		return
	}
	set.optional[term.Text] = term
}

// mergeGroup folds a parenthesized subexpression's bucketSet into the
// enclosing scope. NOT applied to a group excludes every term the group
// produced (a best-effort flattening: the QueryPlan representation has no
// nested structure to carry exact De Morgan semantics). An AND-context
// group keeps its required terms required; an OR-context group demotes
// them to optional, since the group as a whole is only one optional
// alternative among the rest of the expression.
func mergeGroup(outer *bucketSet, inner bucketSet, combinator string, negate bool) {
	outer.hints = append(outer.hints, inner.hints...)

	if negate {
		for _, m := range []map[string]model.Term{inner.required, inner.optional, inner.excluded} {
			for k, v := range m {
				delete(outer.required, k)
				delete(outer.optional, k)
				outer.excluded[k] = v
			}
		}
		return
	}

	for k, v := range inner.excluded {
		if _, required := outer.required[k]; !required {
			outer.excluded[k] = v
		}
	}
	for k, v := range inner.required {
		if _, excluded := outer.excluded[k]; excluded {
			continue
		}
		if combinator == "AND" {
			outer.required[k] = v
		} else if _, already := outer.required[k]; !already {
			outer.optional[k] = v
		}
	}
	for k, v := range inner.optional {
		if _, excluded := outer.excluded[k]; excluded {
			continue
		}
		if _, already := outer.required[k]; already {
			continue
		}
		outer.optional[k] = v
	}
}
