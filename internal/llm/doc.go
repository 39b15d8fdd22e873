// Package llm provides language model clients for drafting addendum text.
// It supports OpenAI and Anthropic, with retry logic, rate limiting, and
// response caching layered on top by Drafter.
package llm
