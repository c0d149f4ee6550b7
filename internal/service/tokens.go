package service

import (
	"log"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const tokenEncoding = "cl100k_base"

var (
	tokenizerOnce sync.Once
	tokenizer     *tiktoken.Tiktoken
)

// getTokenizer lazily loads the shared BPE tokenizer. A load failure is
// logged once and token operations fall back to a character approximation.
func getTokenizer() *tiktoken.Tiktoken {
	tokenizerOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(tokenEncoding)
		if err != nil {
			log.Printf("tokenizer init failed, falling back to character counts: %v", err)
			return
		}
		tokenizer = enc
	})
	return tokenizer
}

// CountTokens returns the token length of text, approximating four characters
// per token when the tokenizer is unavailable.
func CountTokens(text string) int {
	if enc := getTokenizer(); enc != nil {
		return len(enc.Encode(text, nil, nil))
	}
	return (len(text) + 3) / 4
}

// TruncateTokens trims text to at most maxTokens tokens.
func TruncateTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	enc := getTokenizer()
	if enc == nil {
		if len(text) > maxTokens*4 {
			return text[:maxTokens*4]
		}
		return text
	}

	tokens := enc.Encode(text, nil, nil)
	if len(tokens) <= maxTokens {
		return text
	}
	return enc.Decode(tokens[:maxTokens])
}
