package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/docusign/api-request-builder-open-src/internal/assembler"
	"github.com/docusign/api-request-builder-open-src/internal/codegen"
	"github.com/docusign/api-request-builder-open-src/internal/diagram"
	"github.com/docusign/api-request-builder-open-src/internal/document"
	"github.com/docusign/api-request-builder-open-src/internal/schema"
)

type handlers struct {
	tables   *schema.Tables
	programs *programs
	logger   *slog.Logger
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":         "ok",
		"schema_version": h.tables.Version,
	})
}

func (h *handlers) languages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.programs.gen.Languages().List())
}

func (h *handlers) objectTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.tables.ObjectTypes())
}

// objectInfo describes a block type for editors and tooling.
type objectInfo struct {
	Name          string                      `json:"name"`
	Parents       []string                    `json:"parents"`
	Children      map[string]schema.ChildLink `json:"children"`
	Attributes    map[string]schema.AttrInfo  `json:"attributes"`
	AutoContainer bool                        `json:"auto_container"`
	ScalarArray   bool                        `json:"scalar_array"`
	Containers    []string                    `json:"containers,omitempty"`
}

func (h *handlers) objectType(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := assembler.CheckKnown(h.tables, name); err != nil {
		writeError(w, http.StatusNotFound, "UNKNOWN_BLOCK", err.Error())
		return
	}
	info := objectInfo{
		Name:          name,
		Parents:       h.tables.ParentsOf(name),
		Children:      h.tables.Children[name],
		Attributes:    h.tables.ChildAttributes[name],
		AutoContainer: h.tables.IsAutoContainer(name),
		ScalarArray:   h.tables.IsScalarArray(name),
		Containers:    h.tables.ContainersFor(name),
	}
	if info.Children == nil {
		info.Children = map[string]schema.ChildLink{}
	}
	if info.Attributes == nil {
		info.Attributes = map[string]schema.AttrInfo{}
	}
	writeJSON(w, http.StatusOK, info)
}

// buildFailure explains why a diagram could not be built.
type buildFailure struct {
	Index      int      `json:"index"`
	ObjectType string   `json:"object_type"`
	Missing    []string `json:"missing,omitempty"`
}

func (h *handlers) build(w http.ResponseWriter, r *http.Request) {
	d, err := diagram.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var invalid *diagram.InvalidError
		if errors.As(err, &invalid) {
			writeErrorDetails(w, http.StatusBadRequest, "INVALID_DIAGRAM", err.Error(), invalid.Problems)
			return
		}
		writeError(w, http.StatusBadRequest, "INVALID_DIAGRAM", err.Error())
		return
	}

	req, err := diagram.Build(assembler.New(h.tables, assembler.WithLogger(h.logger)), d)
	if err != nil {
		var replay *diagram.ReplayError
		if !errors.As(err, &replay) {
			h.logger.Error("build", "err", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			return
		}
		failure := buildFailure{Index: replay.Index, ObjectType: replay.Op.Type}
		code := "INVALID_OPERATION"
		var insertion *assembler.InsertionError
		var unknown *assembler.UnknownObjectError
		switch {
		case errors.As(err, &insertion):
			code = "INSERTION_FAILED"
			failure.Missing = insertion.Missing()
		case errors.As(err, &unknown):
			code = "UNKNOWN_BLOCK"
		}
		writeErrorDetails(w, http.StatusUnprocessableEntity, code, replay.Err.Error(), failure)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

func (h *handlers) generate(w http.ResponseWriter, r *http.Request) {
	language := chi.URLParam(r, "language")
	if !h.programs.Supported(language) {
		writeError(w, http.StatusNotFound, "UNSUPPORTED_LANGUAGE", codegen.Unsupported(h.programs.DisplayName(language)))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}
	req, err := document.DecodeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	code, err := h.programs.Generate(req, language)
	if err != nil {
		h.logger.Error("generate", "language", language, "err", err)
		writeError(w, http.StatusInternalServerError, "GENERATE_FAILED", err.Error())
		return
	}
	writeText(w, http.StatusOK, code)
}
