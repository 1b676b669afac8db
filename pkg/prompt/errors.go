package prompt

import "errors"

// ErrLLMParse means a structured stage's JSON stayed unparseable after
// the one permitted retry.
var ErrLLMParse = errors.New("llm returned unparseable JSON")
