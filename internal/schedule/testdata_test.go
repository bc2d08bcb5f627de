package schedule

import "vitalis/internal/model"

func seminar(id, title, dateTime string, meta model.Metadata) model.Seminar {
	return model.Seminar{
		ID:       model.ID(id),
		Title:    title,
		Location: "Sal A",
		DateTime: dateTime,
		Metadata: meta,
	}
}

// sampleCatalog mirrors the shape of the conference document.
func sampleCatalog() []model.Seminar {
	return []model.Seminar{
		{
			ID: "1", Title: "AI i vården", Location: "Sal A",
			DateTime: "Måndag 12 maj 2025 10:30 - 11:00",
			Speakers: []model.Speaker{{Name: "Anna Berg", Title: "Överläkare", Organization: "Region Skåne"}},
			Metadata: model.Metadata{
				"Språk":        {"Svenska"},
				"Ämne":         {"AI"},
				"Målgrupp":     {"IT-chefer", "Vårdpersonal"},
				"Kunskapsnivå": {"Grundläggande"},
			},
		},
		{
			ID: "2", Title: "Journalsystem", Location: "Sal B",
			DateTime: "Måndag 12 maj 2025 09:00 - 09:30",
			Metadata: model.Metadata{
				"Språk":    {"Engelska"},
				"Ämne":     {"Journaler"},
				"Målgrupp": {"IT-chefer"},
			},
		},
		{
			ID: "3", Title: "Säkerhet", Location: "Sal A",
			DateTime: "Måndag 12 maj 2025 14:00 - 14:30",
			Metadata: model.Metadata{"Språk": {"Svenska"}, "Ämne": {"Säkerhet"}},
		},
		{
			ID: "4", Title: "Datadelning", Location: "Sal C",
			DateTime: "Måndag 12 maj 2025 10:30 - 11:00",
			Metadata: model.Metadata{"Målgrupp": {"Politiker"}},
		},
		{
			ID: "5", Title: "Tisdagsseminarium", Location: "Sal A",
			DateTime: "Tisdag 13 maj 2025 10:00 - 11:00",
			Metadata: model.Metadata{"Språk": {"Svenska"}},
		},
	}
}
