package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/model"
	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

// GET /api/directories
func ListDirectoriesHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := st.ListDirectories(c.Request.Context())
		if err != nil {
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

// POST /api/directories
func CreateDirectoryHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var dto model.DirectoryCreate
		if err := c.ShouldBindJSON(&dto); err != nil {
			fail(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		if strings.TrimSpace(dto.Name) == "" {
			fail(c, http.StatusBadRequest, "Directory name must not be blank")
			return
		}
		if err := validateDirectoryFields(c.Request.Context(), st, nil, dto.Fields); err != nil {
			failFromErr(c, err)
			return
		}
		created, err := st.CreateDirectory(c.Request.Context(), dto)
		if err != nil {
			failFromErr(c, err)
			return
		}
		c.JSON(http.StatusOK, created)
	}
}

// PUT /api/directories/:id
func UpdateDirectoryHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid directory id")
			return
		}

		var dto model.Directory
		if err := c.ShouldBindJSON(&dto); err != nil {
			fail(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		if strings.TrimSpace(dto.Name) == "" {
			fail(c, http.StatusBadRequest, "Directory name must not be blank")
			return
		}
		if err := validateDirectoryFields(c.Request.Context(), st, &id, dto.Fields); err != nil {
			failFromErr(c, err)
			return
		}
		updated, err := st.UpdateDirectory(c.Request.Context(), id, dto)
		if err != nil {
			failFromErr(c, err)
			return
		}
		c.JSON(http.StatusOK, updated)
	}
}

// failFromErr раскладывает ошибку по статусам: валидация → 400,
// not found из хранилища → 404, остальное → 500.
func failFromErr(c *gin.Context, err error) {
	var ve *validationError
	switch {
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, ve.Error())
	case errors.Is(err, storage.ErrDirectoryNotFound):
		fail(c, http.StatusNotFound, "Directory not found")
	case errors.Is(err, storage.ErrRecordNotFound):
		fail(c, http.StatusNotFound, "Record not found")
	default:
		fail(c, http.StatusInternalServerError, "Internal server error")
	}
}
