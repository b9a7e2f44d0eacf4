package normalize

// Pointer fields separate "missing" from "present but empty".

// generatedText is one Hugging Face text-generation result.
type generatedText struct {
	GeneratedText *string `json:"generated_text"`
}

type responseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// chatCompletionResponse is the OpenAI-compatible response format.
type chatCompletionResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int              `json:"index"`
		Message      *responseMessage `json:"message"`
		FinishReason string           `json:"finish_reason"`
	} `json:"choices"`
}

// assistantMessageResponse is the Ollama /api/chat response format.
type assistantMessageResponse struct {
	Model   string           `json:"model"`
	Message *responseMessage `json:"message"`
	Done    bool             `json:"done"`
}
