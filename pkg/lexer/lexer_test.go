package lexer

import (
	"testing"

	"github.com/ormasoftchile/dialogos/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func assertKinds(t *testing.T, toks []token.Token, want []token.Kind) {
	t.Helper()
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("kind count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d kind = %s, want %s\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}

func TestTokenizeKeywordsAndIdentifiers(t *testing.T) {
	toks, err := Tokenize("Step welcome\n  Speak greeting\n")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	assertKinds(t, toks, []token.Kind{
		token.STEP, token.IDENTIFIER, token.NEWLINE,
		token.SPEAK, token.IDENTIFIER, token.NEWLINE,
		token.EOF,
	})
}

func TestTokenizeStringEscapes(t *testing.T) {
	toks, err := Tokenize(`"a\nb\tc\\d\"e"`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if len(toks) != 2 || toks[0].Kind != token.STRING {
		t.Fatalf("expected a single STRING token, got %+v", toks)
	}
	want := "a\nb\tc\\d\"e"
	if toks[0].Str != want {
		t.Errorf("Str = %q, want %q", toks[0].Str, want)
	}
}

func TestTokenizeUnknownEscapePassesCharThrough(t *testing.T) {
	toks, err := Tokenize(`"a\zb"`)
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Str != "azb" {
		t.Errorf("Str = %q, want %q", toks[0].Str, "azb")
	}
}

func TestTokenizeUnterminatedStringIsError(t *testing.T) {
	if _, err := Tokenize(`"no closing quote`); err == nil {
		t.Error("expected error for unterminated string")
	}
}

func TestTokenizeStringCannotSpanRawNewline(t *testing.T) {
	if _, err := Tokenize("\"line one\nline two\""); err == nil {
		t.Error("expected error for raw newline inside string literal")
	}
}

func TestTokenizeIntegerAndFloatNumbers(t *testing.T) {
	toks, err := Tokenize("5 30 3.14 0.5")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	cases := []struct {
		isInt bool
		num   float64
	}{
		{true, 5}, {true, 30}, {false, 3.14}, {false, 0.5},
	}
	for i, c := range cases {
		if toks[i].Kind != token.NUMBER {
			t.Fatalf("token %d kind = %s, want NUMBER", i, toks[i].Kind)
		}
		if toks[i].IsInt != c.isInt {
			t.Errorf("token %d IsInt = %v, want %v", i, toks[i].IsInt, c.isInt)
		}
		if toks[i].Num != c.num {
			t.Errorf("token %d Num = %v, want %v", i, toks[i].Num, c.num)
		}
	}
}

func TestTokenizeNumberDotNotFollowedByDigitIsNotDecimal(t *testing.T) {
	// "5." has no digit after the dot, so scanNumber stops at "5" and
	// leaves the bare '.' for the next Next() call, which has no rule
	// for it.
	if _, err := Tokenize("5."); err == nil {
		t.Error("expected error scanning a trailing '.' with no following digit")
	}
}

func TestTokenizeVariable(t *testing.T) {
	toks, err := Tokenize("$customer_name")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	if toks[0].Kind != token.VARIABLE || toks[0].Text != "customer_name" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestTokenizeBareDollarIsError(t *testing.T) {
	if _, err := Tokenize("$ "); err == nil {
		t.Error("expected error for '$' with no identifier")
	}
}

func TestTokenizeTwoCharOperatorsPreferredOverSingleChar(t *testing.T) {
	toks, err := Tokenize("a == b != c >= d <= e = f")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	assertKinds(t, toks, []token.Kind{
		token.IDENTIFIER, token.EQ, token.IDENTIFIER, token.NEQ, token.IDENTIFIER,
		token.GE, token.IDENTIFIER, token.LE, token.IDENTIFIER, token.ASSIGN,
		token.IDENTIFIER, token.EOF,
	})
}

func TestTokenizeSingleCharOperatorsAndDelimiters(t *testing.T) {
	toks, err := Tokenize("+-*/()[]{},:><")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	assertKinds(t, toks, []token.Kind{
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.LPAREN, token.RPAREN, token.LBRACKET, token.RBRACKET,
		token.LBRACE, token.RBRACE, token.COMMA, token.COLON,
		token.GT, token.LT, token.EOF,
	})
}

func TestTokenizeBangWithoutEqualsIsError(t *testing.T) {
	if _, err := Tokenize("a ! b"); err == nil {
		t.Error("expected error for bare '!'")
	}
}

func TestTokenizeCommentRunsToEndOfLineNotPastIt(t *testing.T) {
	toks, err := Tokenize("Step a # this is ignored\nSpeak b")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	assertKinds(t, toks, []token.Kind{
		token.STEP, token.IDENTIFIER, token.NEWLINE,
		token.SPEAK, token.IDENTIFIER, token.EOF,
	})
}

func TestTokenizeTracksLineAndColumn(t *testing.T) {
	toks, err := Tokenize("Step a\n  Speak b\n")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	// "Speak" starts on line 2, after two spaces of indentation.
	for _, tok := range toks {
		if tok.Kind == token.SPEAK {
			if tok.Line != 2 || tok.Column != 3 {
				t.Errorf("Speak token at %d:%d, want 2:3", tok.Line, tok.Column)
			}
			return
		}
	}
	t.Fatal("SPEAK token not found")
}

func TestTokenizeEmptySourceIsJustEOF(t *testing.T) {
	toks, err := Tokenize("")
	if err != nil {
		t.Fatalf("Tokenize: %v", err)
	}
	assertKinds(t, toks, []token.Kind{token.EOF})
}
