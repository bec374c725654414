// Package file provides file-based implementations of driven port interfaces.
//
// Adapters:
//   - ConfigStore: TOML settings in ~/.troubleshoot/config.toml
//   - PromptStore: editable prompt templates in ~/.troubleshoot/prompts
//   - UploadStore: uploaded manuals and tables kept under the data directory
package file
