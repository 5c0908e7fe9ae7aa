package summary

import (
	"context"
	"fmt"
	"strings"

	"interview-copilot/internal/provider"
)

const resumePrompt = `Provide a detailed, structured summary of the following resume for interview preparation. Cover professional profile, work experience with companies and dates, technical skills, education, certifications, notable projects and spoken languages. Be specific about technologies and metrics; use bullet points.`

const jobPrompt = `Provide a concise summary of the following job description in about 150 words.`

// LLMCompute builds a ComputeFunc that summarizes text through a
// provider backend, answering in the detected language.
func LLMCompute(backend provider.Backend, model, prompt string) ComputeFunc {
	return func(ctx context.Context, text, languageCode string) (string, error) {
		instruction := prompt
		if languageCode != "" {
			instruction += fmt.Sprintf(" Write the summary in the language with code %q.", languageCode)
		}

		delivery, err := backend.Generate(ctx, provider.Request{
			Model: model,
			Messages: []provider.Message{
				{Role: "user", Content: instruction + "\n\n" + text},
			},
		})
		if err != nil {
			return "", err
		}
		return drain(delivery)
	}
}

// ResumeCompute returns the resume summarization collaborator.
func ResumeCompute(backend provider.Backend, model string) ComputeFunc {
	return LLMCompute(backend, model, resumePrompt)
}

// JobCompute returns the job description summarization collaborator.
func JobCompute(backend provider.Backend, model string) ComputeFunc {
	return LLMCompute(backend, model, jobPrompt)
}

// drain collects a delivery of either shape into one string.
func drain(delivery provider.Delivery) (string, error) {
	var sb strings.Builder
	stream := provider.NewStream(delivery)
	for {
		fragment, ok := stream.Next()
		if !ok {
			break
		}
		sb.WriteString(fragment)
	}
	if stream.Failed() {
		return "", fmt.Errorf("summarization backend failed: %s", sb.String())
	}
	return sb.String(), nil
}
