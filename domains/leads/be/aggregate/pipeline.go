package aggregate

import "github.com/simple-easy-sites/simple-sales-crm/domains/leads/be/model"

// StatusGroup is one non-empty bucket of the pipeline view.
type StatusGroup struct {
	Status model.LeadStatus
	Style  model.Style
	Leads  []model.Lead
}

// Pipeline partitions leads by status in display order. Empty buckets are
// omitted and each bucket keeps the input order of its leads.
func Pipeline(leads []model.Lead) []StatusGroup {
	buckets := make(map[model.LeadStatus][]model.Lead)
	for _, lead := range leads {
		buckets[lead.Status] = append(buckets[lead.Status], lead)
	}

	groups := make([]StatusGroup, 0, len(buckets))
	for _, status := range model.Statuses() {
		members, ok := buckets[status]
		if !ok {
			continue
		}
		groups = append(groups, StatusGroup{Status: status, Style: model.StatusStyle(status), Leads: members})
		delete(buckets, status)
	}

	// Rows carrying a status outside the enum still belong to the partition.
	for _, lead := range leads {
		members, ok := buckets[lead.Status]
		if !ok {
			continue
		}
		groups = append(groups, StatusGroup{Status: lead.Status, Style: model.StatusStyle(lead.Status), Leads: members})
		delete(buckets, lead.Status)
	}
	return groups
}
