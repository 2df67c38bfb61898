package domain

import "sort"

// FilterAndPaginate applies f to links and cuts one page. Links are ordered
// newest first; the cursor is the id of the last link of the previous page
// and an unknown cursor starts from the beginning.
func FilterAndPaginate(links []*PaymentLink, f ListPaymentLinksFilter) PaymentLinkPage {
	filtered := make([]*PaymentLink, 0, len(links))
	for _, l := range links {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.ProjectID != "" && l.ProjectID != f.ProjectID {
			continue
		}
		if !l.MatchesQuery(f.Query) {
			continue
		}
		filtered = append(filtered, l)
	}
	return Paginate(filtered, f.Cursor, f.Limit)
}

// Paginate assumes links are already filtered.
func Paginate(links []*PaymentLink, cursor string, limit int) PaymentLinkPage {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	// Same order as the postgres store: created_at DESC, id DESC.
	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].CreatedAt.Equal(links[j].CreatedAt) {
			return links[i].CreatedAt.After(links[j].CreatedAt)
		}
		return links[i].ID > links[j].ID
	})

	start := 0
	if cursor != "" {
		for i, l := range links {
			if l.ID == cursor {
				start = i + 1
				break
			}
		}
	}
	end := start + limit
	if end > len(links) {
		end = len(links)
	}

	page := PaymentLinkPage{
		Data: links[start:end],
		Pagination: Pagination{
			HasMore: start+limit < len(links),
			Total:   len(links),
		},
	}
	if page.Pagination.HasMore && len(page.Data) > 0 {
		page.Pagination.Cursor = page.Data[len(page.Data)-1].ID
	}
	if page.Data == nil {
		page.Data = []*PaymentLink{}
	}
	return page
}
