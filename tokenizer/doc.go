// Package tokenizer provides token counting for the chunking and
// selection stages. The default counter is a character-ratio estimator;
// a tiktoken-backed counter is available for OpenAI-family models and
// degrades to the estimator when the encoding cannot be loaded.
package tokenizer
