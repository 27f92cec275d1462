package fhir

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// TxRunner executes a function inside one atomic persistence transaction.
// The db package provides the pgx-backed implementation; the function's
// context carries the open transaction so repositories join it.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// BundleHandler processes POST /fhir Bundle submissions of type transaction
// or batch. Atomicity for transactions is delegated entirely to the
// TxRunner; there is no compensation logic here.
type BundleHandler struct {
	registry *Registry
	tx       TxRunner
}

func NewBundleHandler(registry *Registry, tx TxRunner) *BundleHandler {
	return &BundleHandler{registry: registry, tx: tx}
}

func (h *BundleHandler) RegisterRoutes(fhirGroup *echo.Group) {
	fhirGroup.POST("", h.ProcessBundle)
	fhirGroup.POST("/", h.ProcessBundle)
}

// ProcessBundle validates the envelope and runs the entries under the
// requested execution semantics.
func (h *BundleHandler) ProcessBundle(c echo.Context) error {
	var bundle Bundle
	if err := (&echo.DefaultBinder{}).BindBody(c, &bundle); err != nil {
		return c.JSON(http.StatusBadRequest, InvalidOutcome("invalid Bundle JSON: "+err.Error()))
	}

	if bundle.ResourceType != "Bundle" {
		return c.JSON(http.StatusBadRequest, InvalidOutcome("request body must be a Bundle resource"))
	}
	for i, entry := range bundle.Entry {
		if entry.Request == nil || entry.Request.Method == "" || entry.Request.URL == "" {
			return c.JSON(http.StatusBadRequest, InvalidOutcome(
				fmt.Sprintf("entry[%d]: request.method and request.url are required", i)))
		}
	}

	switch bundle.Type {
	case "transaction":
		return h.processTransaction(c, &bundle)
	case "batch":
		return h.processBatch(c, &bundle)
	default:
		return c.JSON(http.StatusBadRequest, InvalidOutcome(
			fmt.Sprintf("unsupported bundle type %q; expected 'transaction' or 'batch'", bundle.Type)))
	}
}

// processTransaction executes all entries inside a single database
// transaction. The first failure aborts the unit and rolls every entry
// back; nothing is committed, so the client receives one OperationOutcome
// rather than per-entry results.
func (h *BundleHandler) processTransaction(c echo.Context, bundle *Bundle) error {
	responseEntries := make([]BundleEntry, len(bundle.Entry))

	err := h.tx.RunInTx(c.Request().Context(), func(ctx context.Context) error {
		for i, entry := range bundle.Entry {
			respEntry, err := h.registry.Dispatch(ctx, entry.Request.Method, entry.Request.URL, entry.Resource)
			if err != nil {
				return fmt.Errorf("transaction failed at entry[%d] (%s %s): %w",
					i, entry.Request.Method, entry.Request.URL, err)
			}
			responseEntries[i] = respEntry
		}
		return nil
	})
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorOutcome(err.Error()))
	}

	return c.JSON(http.StatusOK, NewTransactionResponse(responseEntries))
}

// processBatch executes entries independently. A failing entry is reported
// in place with a 400 status line and OperationOutcome while its siblings
// proceed; the envelope status is always 200.
func (h *BundleHandler) processBatch(c echo.Context, bundle *Bundle) error {
	ctx := c.Request().Context()
	responseEntries := make([]BundleEntry, len(bundle.Entry))

	for i, entry := range bundle.Entry {
		respEntry, err := h.registry.Dispatch(ctx, entry.Request.Method, entry.Request.URL, entry.Resource)
		if err != nil {
			resourceType, id := ParseEntryURL(entry.Request.URL)
			now := time.Now().UTC()
			responseEntries[i] = BundleEntry{
				Response: &BundleResponse{
					Status:       "400 Bad Request",
					LastModified: &now,
					Outcome:      OutcomeForError(err, resourceType, id),
				},
			}
			continue
		}
		responseEntries[i] = respEntry
	}

	return c.JSON(http.StatusOK, NewBatchResponse(responseEntries))
}
