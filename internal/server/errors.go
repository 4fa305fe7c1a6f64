package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"taskboard/internal/apperr"
)

var registerTagName sync.Once

// useJSONFieldNames makes validation errors name fields the way clients send them.
func useJSONFieldNames() {
	registerTagName.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

func httpStatus(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindConflict:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// respondError maps err to a status code, logs it and writes {"error": msg}.
func (s *Server) respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := httpStatus(kind)

	attrs := []any{
		slog.String("path", c.FullPath()),
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", attrs...)
	} else {
		s.logger.Warn("request rejected", attrs...)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return bindError(err)
	}
	return nil
}

func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			if fe.Tag() == "required" {
				msgs = append(msgs, fe.Field()+" is required")
				continue
			}
			msgs = append(msgs, fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag()))
		}
		return apperr.Validation("%s", strings.Join(msgs, "; "))
	}
	return apperr.Validation("invalid request body: %v", err)
}
