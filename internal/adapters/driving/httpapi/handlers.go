package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/custodia-labs/troubleshoot/internal/core/domain"
	"github.com/custodia-labs/troubleshoot/internal/core/ports/driving"
)

// QueryRequest is the body of /retrieve and /summarize.
type QueryRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"gte=0"`
}

// AskRequest is the body of /ask.
type AskRequest struct {
	Query   string                    `json:"query" validate:"required"`
	History []domain.ConversationTurn `json:"history" validate:"dive"`
	TopK    int                       `json:"top_k" validate:"gte=0"`
	Stream  bool                      `json:"stream"`
}

// Health reports liveness and store sizes.
func (s *Server) Health(c fiber.Ctx) error {
	body := fiber.Map{
		"status":  "healthy",
		"app":     AppName,
		"version": s.version,
	}
	if s.ingest != nil {
		body["documents"] = len(s.ingest.Documents(c.Context()))
		body["table_rows"] = s.ingest.TableRowCount()
	}
	return c.JSON(body)
}

// Retrieve returns the context that would be sent to the model. A zero
// top_k uses the configured retrieval.top_k.
func (s *Server) Retrieve(c fiber.Ctx) error {
	var req QueryRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	snippets, err := s.assistant.Snippets(c.Context(), req.Query, req.TopK)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"context":  domain.JoinSnippets(snippets),
		"snippets": snippets,
		"count":    len(snippets),
	})
}

// Ask answers a question, as JSON or as server-sent events.
func (s *Server) Ask(c fiber.Ctx) error {
	var req AskRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	ask := driving.AskRequest{
		Query:   req.Query,
		History: req.History,
		Mode:    domain.ModeNormal,
		TopK:    req.TopK,
	}
	if req.Stream || strings.Contains(c.Get(fiber.HeaderAccept), "text/event-stream") {
		return s.stream(c, ask)
	}
	return s.answer(c, ask)
}

// Summarize summarises the context retrieved for a query.
func (s *Server) Summarize(c fiber.Ctx) error {
	var req QueryRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}

	return s.answer(c, driving.AskRequest{
		Query: req.Query,
		Mode:  domain.ModeSummarize,
		TopK:  req.TopK,
	})
}

func (s *Server) answer(c fiber.Ctx, req driving.AskRequest) error {
	answer, err := s.assistant.Ask(c.Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"answer": answer})
}

// stream writes one "data:" event per fragment and ends with [DONE]. A
// backend failure is sent as an "error" event.
func (s *Server) stream(c fiber.Ctx, req driving.AskRequest) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Context()))
	tokens := s.assistant.Stream(ctx, req)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for token, err := range tokens {
			if err != nil {
				writeEvent(w, "error", fiber.Map{"error": err.Error()}) //nolint:errcheck
				return
			}
			if err := writeEvent(w, "", fiber.Map{"token": token}); err != nil {
				return
			}
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		w.Flush() //nolint:errcheck
	})
}

func writeEvent(w *bufio.Writer, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if event != "" {
		fmt.Fprintf(w, "event: %s\n", event)
	}
	fmt.Fprintf(w, "data: %s\n\n", data)
	return w.Flush()
}

// SearchTables returns pooled table rows matching ?q=.
func (s *Server) SearchTables(c fiber.Ctx) error {
	q := c.Query("q")
	if strings.TrimSpace(q) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "query parameter q is required")
	}
	rows := s.assistant.SearchTables(q)
	return c.JSON(fiber.Map{"rows": rows, "count": len(rows)})
}

// ListDocuments lists ingested documents.
func (s *Server) ListDocuments(c fiber.Ctx) error {
	docs := s.ingest.Documents(c.Context())
	if docs == nil {
		docs = []driving.DocumentSummary{}
	}
	return c.JSON(fiber.Map{
		"documents":  docs,
		"count":      len(docs),
		"table_rows": s.ingest.TableRowCount(),
	})
}

// UploadDocument ingests the multipart "file" field.
func (s *Server) UploadDocument(c fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "multipart field \"file\" is required")
	}

	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	report, err := s.ingest.IngestUpload(c.Context(), fh.Filename, content)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// RemoveDocument drops a document by name.
func (s *Server) RemoveDocument(c fiber.Ctx) error {
	if err := s.ingest.RemoveDocument(c.Context(), c.Params("name")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) bind(c fiber.Ctx, v any) error {
	if err := c.Bind().JSON(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidArgument, err)
	}
	return nil
}

