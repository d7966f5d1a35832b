// Package gateway is the narrow boundary to the generative-AI completion
// service. The rest of the module depends only on DocumentAnalyzer and
// ChatResponder; Gemini is the HTTP implementation.
package gateway

import (
	"context"
	"fmt"
	"time"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-3-flash-preview"

	DocumentPrompt = "Extract the core information from this college document (ID, Grade sheet, or Certificate). " +
		"Provide a concise summary and verify if it looks legitimate for a college record."

	systemInstructionFormat = "You are EduSmart, a helpful AI assistant for a college student management system. \n" +
		"      The student's context is: %s. \n" +
		"      Help them with campus navigation, fee queries, document management, and general academic advice. \n" +
		"      Keep answers short and student-friendly."

	OpAnalyze = "analyze"
	OpChat    = "chat"
)

// DocumentAnalyzer turns a document payload into a short summary.
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, data []byte, mimeType string) (string, error)
}

// ChatResponder answers one conversational turn given the student context.
type ChatResponder interface {
	Reply(ctx context.Context, message, studentContext string) (string, error)
}

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// RatePerSecond and Burst pace outgoing calls. Zero disables pacing.
	RatePerSecond float64
	Burst         int
}

// SystemInstruction embeds the student context into the assistant persona.
func SystemInstruction(studentContext string) string {
	return fmt.Sprintf(systemInstructionFormat, studentContext)
}
