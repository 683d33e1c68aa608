// Package sdsl parses shader fragment source text into the fragment IR.
//
// A source file holds one fragment:
//
//	shader ComputeColorTexture<Semantic TexCoord> : ComputeColor, Texturing
//	{
//	    compose ComputeColor Tint;
//	    stage stream float2 UV : TexCoord;
//	    override float4 Compute()
//	    {
//	        return Texture0.Sample(Sampler, streams.UV) * Tint.Compute();
//	    }
//	};
//
// Preprocessor directives (#define, #undef, #ifdef, #ifndef, #if, #elif,
// #else, #endif) are evaluated before parsing, and object-like macros are
// substituted at the token level.
package sdsl

// TokenKind represents the type of token.
type TokenKind uint8

const (
	TokenEOF TokenKind = iota
	TokenError

	// Literals
	TokenIdent
	TokenIntLiteral
	TokenFloatLiteral
	TokenStringLiteral

	// Operators
	TokenPlus                // +
	TokenMinus               // -
	TokenStar                // *
	TokenSlash               // /
	TokenPercent             // %
	TokenAmpersand           // &
	TokenPipe                // |
	TokenCaret               // ^
	TokenTilde               // ~
	TokenBang                // !
	TokenQuestion            // ?
	TokenEqual               // =
	TokenLess                // <
	TokenGreater             // >
	TokenDot                 // .
	TokenComma               // ,
	TokenColon               // :
	TokenSemicolon           // ;
	TokenPlusPlus            // ++
	TokenMinusMinus          // --
	TokenEqualEqual          // ==
	TokenBangEqual           // !=
	TokenLessEqual           // <=
	TokenGreaterEqual        // >=
	TokenAmpAmp              // &&
	TokenPipePipe            // ||
	TokenLessLess            // <<
	TokenGreaterGreater      // >>
	TokenPlusEqual           // +=
	TokenMinusEqual          // -=
	TokenStarEqual           // *=
	TokenSlashEqual          // /=
	TokenPercentEqual        // %=
	TokenAmpEqual            // &=
	TokenPipeEqual           // |=
	TokenCaretEqual          // ^=
	TokenLessLessEqual       // <<=
	TokenGreaterGreaterEqual // >>=

	// Delimiters
	TokenLeftParen    // (
	TokenRightParen   // )
	TokenLeftBrace    // {
	TokenRightBrace   // }
	TokenLeftBracket  // [
	TokenRightBracket // ]

	// Keywords
	TokenShader
	TokenStruct
	TokenTypedef
	TokenCbuffer
	TokenIf
	TokenElse
	TokenFor
	TokenForeach
	TokenWhile
	TokenDo
	TokenReturn
	TokenBreak
	TokenContinue
	TokenDiscard
	TokenTrue
	TokenFalse

	// Qualifier keywords
	TokenStage
	TokenStream
	TokenPatchStream
	TokenCompose
	TokenConst
	TokenStatic
	TokenClone
	TokenOverride
	TokenAbstract
	TokenInternal
	TokenIn
	TokenOut
	TokenInOut
)

var tokenNames = map[TokenKind]string{
	TokenEOF:           "EOF",
	TokenError:         "Error",
	TokenIdent:         "Ident",
	TokenIntLiteral:    "IntLiteral",
	TokenFloatLiteral:  "FloatLiteral",
	TokenStringLiteral: "StringLiteral",
	TokenLeftParen:     "(",
	TokenRightParen:    ")",
	TokenLeftBrace:     "{",
	TokenRightBrace:    "}",
	TokenLeftBracket:   "[",
	TokenRightBracket:  "]",
	TokenSemicolon:     ";",
	TokenColon:         ":",
	TokenComma:         ",",
	TokenLess:          "<",
	TokenGreater:       ">",
	TokenEqual:         "=",
	TokenShader:        "shader",
}

// String returns the string representation of the token kind.
func (k TokenKind) String() string {
	if s, ok := tokenNames[k]; ok {
		return s
	}
	for text, kind := range keywords {
		if kind == k {
			return text
		}
	}
	return "Unknown"
}

// Token represents a lexical token.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Line   int
	Column int
}

var keywords = map[string]TokenKind{
	"shader":      TokenShader,
	"class":       TokenShader,
	"struct":      TokenStruct,
	"typedef":     TokenTypedef,
	"cbuffer":     TokenCbuffer,
	"if":          TokenIf,
	"else":        TokenElse,
	"for":         TokenFor,
	"foreach":     TokenForeach,
	"while":       TokenWhile,
	"do":          TokenDo,
	"return":      TokenReturn,
	"break":       TokenBreak,
	"continue":    TokenContinue,
	"discard":     TokenDiscard,
	"true":        TokenTrue,
	"false":       TokenFalse,
	"stage":       TokenStage,
	"stream":      TokenStream,
	"patchstream": TokenPatchStream,
	"compose":     TokenCompose,
	"const":       TokenConst,
	"static":      TokenStatic,
	"clone":       TokenClone,
	"override":    TokenOverride,
	"abstract":    TokenAbstract,
	"internal":    TokenInternal,
	"in":          TokenIn,
	"out":         TokenOut,
	"inout":       TokenInOut,
}
