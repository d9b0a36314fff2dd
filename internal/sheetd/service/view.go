package service

import (
	"time"

	"github.com/msto63/gridwerk/internal/sheet"
	"github.com/msto63/gridwerk/internal/sheetd/store"
)

// SheetView is the transport form of a stored sheet
type SheetView struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Data      sheet.Data `json:"data"`
}

// View converts a stored sheet for transport
func View(sh *store.Sheet) SheetView {
	return SheetView{
		ID:        sh.ID,
		Title:     sh.Title,
		Version:   sh.Version,
		CreatedAt: sh.CreatedAt,
		UpdatedAt: sh.UpdatedAt,
		Data:      sh.Snapshot.Data(),
	}
}
