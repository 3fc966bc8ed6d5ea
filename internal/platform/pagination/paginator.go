package pagination

import "net/url"

// Result is one page of items plus navigation metadata.
type Result[T any] struct {
	Items      []T
	Total      int
	NextCursor string
	PrevCursor string
	LinkHeader string
}

// Paginate slices items after the position named by cursor. Items must be in
// a stable order; idFn returns the key stored in cursors. An unknown cursor
// value restarts from the first item.
func Paginate[T any](
	items []T,
	cursor Cursor,
	limit int,
	cursorType string,
	idFn func(T) string,
	baseURL string,
	q url.Values,
) Result[T] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	start := 0
	if cursor.Value != "" {
		for i, item := range items {
			if idFn(item) == cursor.Value {
				start = i + 1
				break
			}
		}
	}
	start = min(start, len(items))
	end := min(start+limit, len(items))

	res := Result[T]{
		Items: items[start:end],
		Total: len(items),
	}

	if end < len(items) && end > start {
		res.NextCursor = Cursor{Type: cursorType, Value: idFn(items[end-1])}.Encode()
	}
	if start > 0 {
		prevStart := max(start-limit, 0)
		prev := Cursor{Type: cursorType}
		if prevStart > 0 {
			prev.Value = idFn(items[prevStart-1])
		}
		res.PrevCursor = prev.Encode()
	}

	res.LinkHeader = BuildLinkHeader(baseURL, q, res.NextCursor, res.PrevCursor)
	return res
}
