package convert

import "encoding/json"

// UpstreamRequest is the envelope sent to
// :generateContent/:streamGenerateContent (spec §3).
type UpstreamRequest struct {
	Model         string         `json:"model"`
	Project       string         `json:"project,omitempty"`
	UserPromptID  string         `json:"user_prompt_id,omitempty"`
	Request       UpstreamBody   `json:"request"`
}

// UpstreamBody is the "request" sub-object of the envelope.
type UpstreamBody struct {
	Contents          []Content                 `json:"contents"`
	SystemInstruction *Content                   `json:"systemInstruction,omitempty"`
	GenerationConfig  UpstreamGenerationConfig   `json:"generationConfig"`
	Tools             []UpstreamTool             `json:"tools,omitempty"`
	ToolConfig        *ToolConfig                `json:"toolConfig,omitempty"`
	SafetySettings    []SafetySetting            `json:"safetySettings,omitempty"`
}

// Content is one role-tagged turn carrying an ordered list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// Part is a union of the six upstream part kinds (spec §3); exactly one
// payload field plus an optional ThoughtSignature is ever populated.
type Part struct {
	Text             string          `json:"text,omitempty"`
	Thought          bool            `json:"thought,omitempty"`
	FunctionCall     *FunctionCall   `json:"functionCall,omitempty"`
	FunctionResponse *FunctionResponse `json:"functionResponse,omitempty"`
	InlineData       *Blob           `json:"inlineData,omitempty"`
	FileData         *FileData       `json:"fileData,omitempty"`
	ThoughtSignature string          `json:"thoughtSignature,omitempty"`
}

// FunctionCall is the upstream shape of a model-issued tool call. Name is
// always the sanitized, mangled name; callers resolve it back to the
// client's original via the ToolNameRegistry.
type FunctionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// FunctionResponse is the upstream shape of a tool result fed back in.
type FunctionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

// Blob is inline binary content (e.g. an image) base64-encoded.
type Blob struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

// FileData references a previously uploaded file by URI.
type FileData struct {
	MimeType string `json:"mimeType"`
	FileURI  string `json:"fileUri"`
}

// UpstreamTool wraps one or more function declarations, or a builtin tool
// like googleSearch.
type UpstreamTool struct {
	FunctionDeclarations []FunctionDeclaration `json:"functionDeclarations,omitempty"`
	GoogleSearch         *struct{}             `json:"googleSearch,omitempty"`
}

// FunctionDeclaration is one callable tool's schema.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ToolConfig carries the function-calling mode (AUTO/ANY/NONE).
type ToolConfig struct {
	FunctionCallingConfig *FunctionCallingConfig `json:"functionCallingConfig,omitempty"`
}

// FunctionCallingConfig is Gemini's tool_choice equivalent.
type FunctionCallingConfig struct {
	Mode string `json:"mode"`
}

// SafetySetting is passed through untouched when a client supplies one.
type SafetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

// UpstreamResponse mirrors the shape of a non-stream generateContent
// response and a single SSE frame's payload alike.
type UpstreamResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
}

// Candidate is one upstream generation candidate; the converter only ever
// looks at candidates[0] (spec §4.2).
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// UsageMetadata is the upstream token-accounting block.
type UsageMetadata struct {
	PromptTokenCount     int64 `json:"promptTokenCount"`
	CandidatesTokenCount int64 `json:"candidatesTokenCount"`
	TotalTokenCount      int64 `json:"totalTokenCount"`
}
