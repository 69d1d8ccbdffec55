// Package providers implements the Reviewer interface for each supported LLM
// provider.
//
// Supported providers: OpenAI (or any compatible endpoint) and Ollama /
// LM Studio for local models. Both speak the chat-completions protocol and
// share one client.
//
// Every call goes through a rate limiter, a per-provider circuit breaker and
// exponential back-off on 429 and 5xx responses. Authentication errors are
// never retried. HTTP clients are plain struct fields so that tests can
// redirect calls to local httptest servers without making live API requests.
//
// Use [New] to obtain a Reviewer by provider name and model string.
package providers
