// Package prompts contains all LLM prompt templates used by mybot.
//
// Keeping prompts in one place makes them auditable and keeps the
// engine code free of long string literals. Each template is a const
// with a builder function that interpolates its parameters.
package prompts
