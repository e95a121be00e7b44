package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/VeleyHeight/Universal-Directory-Constructor/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 200
	// maxPageNumber ограничивает page: page*size не должно переполнять int
	maxPageNumber = 1_000_000
)

// GET /api/records/:directoryId?page&size&search
func ListRecordsHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		dirID, err := strconv.ParseInt(c.Param("directoryId"), 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid directory id")
			return
		}

		page := intQuery(c, "page", 0)
		size := intQuery(c, "size", defaultPageSize)
		if page < 0 {
			page = 0
		}
		if page > maxPageNumber {
			page = maxPageNumber
		}
		if size <= 0 {
			size = defaultPageSize
		}
		if size > maxPageSize {
			size = maxPageSize
		}

		result, err := st.ListRecords(c.Request.Context(), dirID, page, size, c.Query("search"))
		if err != nil {
			if errors.Is(err, storage.ErrDirectoryNotFound) {
				fail(c, http.StatusNotFound, fmt.Sprintf("Directory with ID %d not found", dirID))
				return
			}
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// POST /api/records/:directoryId
func CreateRecordHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		dirID, err := strconv.ParseInt(c.Param("directoryId"), 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid directory id")
			return
		}

		var dto struct {
			ID     *int64         `json:"id"`
			Values map[string]any `json:"values" binding:"required"`
		}
		if err := c.ShouldBindJSON(&dto); err != nil {
			fail(c, http.StatusBadRequest, "Invalid JSON: "+err.Error())
			return
		}
		// id назначает сервер; клиент с id — это конфликт, а не создание
		if dto.ID != nil {
			fail(c, http.StatusConflict, fmt.Sprintf("Record with ID %d already exists", *dto.ID))
			return
		}

		dir, err := st.GetDirectory(c.Request.Context(), dirID)
		if err != nil {
			if errors.Is(err, storage.ErrDirectoryNotFound) {
				fail(c, http.StatusNotFound, fmt.Sprintf("Directory with ID %d not found", dirID))
				return
			}
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}

		values, err := coerceRecordValues(c.Request.Context(), st, dir.Fields, dto.Values)
		if err != nil {
			failFromErr(c, err)
			return
		}

		created, err := st.CreateRecord(c.Request.Context(), dirID, values)
		if err != nil {
			failFromErr(c, err)
			return
		}
		c.JSON(http.StatusOK, created)
	}
}

// DELETE /api/records/:recordId
func DeleteRecordHandler(st storage.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		recID, err := strconv.ParseInt(c.Param("recordId"), 10, 64)
		if err != nil {
			fail(c, http.StatusBadRequest, "Invalid record id")
			return
		}
		if err := st.DeleteRecord(c.Request.Context(), recID); err != nil {
			if errors.Is(err, storage.ErrRecordNotFound) {
				fail(c, http.StatusNotFound, fmt.Sprintf("Record with ID %d does not exist", recID))
				return
			}
			fail(c, http.StatusInternalServerError, "Internal server error")
			return
		}
		c.Status(http.StatusOK)
	}
}

func intQuery(c *gin.Context, name string, def int) int {
	s := c.Query(name)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
