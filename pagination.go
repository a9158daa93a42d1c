package datascope

import "github.com/nao1215/datascope/domain/model"

// DefaultPageCapacity is the number of data rows per page
const DefaultPageCapacity = 200000

// Plan splits totalRows into contiguous pages of at most pageCapacity rows.
// A non-positive capacity falls back to DefaultPageCapacity. The result only
// depends on its arguments, so pages can be cached by index.
func Plan(totalRows, pageCapacity int) *model.PaginationState {
	if pageCapacity <= 0 {
		pageCapacity = DefaultPageCapacity
	}
	totalRows = max(totalRows, 0)

	totalPages := (totalRows + pageCapacity - 1) / pageCapacity
	pages := make([]model.PageInfo, totalPages)
	for i := range totalPages {
		start := i * pageCapacity
		end := min(start+pageCapacity, totalRows)
		pages[i] = model.PageInfo{
			PageIndex: i,
			StartRow:  start,
			EndRow:    end,
			RowCount:  end - start,
		}
	}

	return &model.PaginationState{
		TotalRows:   totalRows,
		TotalPages:  totalPages,
		CurrentPage: 0,
		Pages:       pages,
	}
}

// NeedsPagination reports whether a dataset of totalRows must be paged.
func NeedsPagination(totalRows, pageCapacity int) bool {
	if pageCapacity <= 0 {
		pageCapacity = DefaultPageCapacity
	}
	return totalRows > pageCapacity
}
