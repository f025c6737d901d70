// Package llm provides the conversational language model used to talk to applicants.
// It supports Gemini, OpenAI and Anthropic over their REST APIs plus an offline
// provider that needs no credentials, with client-side rate limiting for all of
// them. Clients only ever see masked text.
package llm
