package domain

// DefaultSystemPrompt is the instruction prepended to normal-mode requests.
const DefaultSystemPrompt = `You are a helpful equipment troubleshooting assistant. 
You help with industrial issues like motor faults, PLC errors, HMI problems, sensor diagnostics, etc. 
Provide actionable and step-by-step advice based on the uploaded documentation or logs.
`

// DefaultSummarizePrompt wraps retrieved context in summarize mode.
const DefaultSummarizePrompt = "Summarize the following text:\n\n%s"
