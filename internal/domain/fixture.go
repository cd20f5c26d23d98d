package domain

// FixtureSnapshot is the built-in topology substituted when the metrics API
// cannot be reached. Callers get a fresh copy each time.
func FixtureSnapshot() Snapshot {
	return Snapshot{
		SnapshotTime: MustTimestamp("2026-01-08T12:25:00"),
		Zones: []Zone{
			{
				Name: "Bauchi",
				TradingPoints: []TradingPoint{
					{
						Name: "GRA/PALACE",
						Feeders: []Feeder{
							{FeederID: 765, Name: "GRA/PALACE", ConsumptionKWh: 7956, UptimeHours: 3.5, VoltageClass: "33Kv Feeder", Station: "BAUCHI TS", Status: StatusOnline},
						},
					},
					{
						Name: "GUBI",
						Feeders: []Feeder{
							{FeederID: 770, Name: "GUBI 33kV", ConsumptionKWh: 7354, UptimeHours: 3.2, VoltageClass: "33Kv Feeder", Station: "BAUCHI TS", Status: StatusOnline},
							{FeederID: 773, Name: "TEACHING HOSPITAL", ConsumptionKWh: 596, UptimeHours: 3.6, VoltageClass: "11Kv Feeder", Station: "NIPP BAUCHI ISS", Status: StatusOnline},
							{FeederID: 774, Name: "WUNTI ROAD", ConsumptionKWh: 1947, UptimeHours: 3.6, VoltageClass: "11Kv Feeder", Station: "NIPP BAUCHI ISS", Status: StatusOnline},
						},
					},
				},
			},
			{
				Name: "Gombe",
				TradingPoints: []TradingPoint{
					{
						Name: "ASHAKA",
						Feeders: []Feeder{
							{FeederID: 747, Name: "ASHAKA I", ConsumptionKWh: 11783, UptimeHours: 2.8, VoltageClass: "11Kv Feeder", Station: "ASHAKA ISS", Status: StatusOnline},
							{FeederID: 748, Name: "ASHAKA II", ConsumptionKWh: 9665, UptimeHours: 1.9, VoltageClass: "11Kv Feeder", Station: "ASHAKA ISS", Status: StatusOnline},
						},
					},
					{
						Name: "SHONGO",
						Feeders: []Feeder{
							{FeederID: 751, Name: "GOVT. HOUSE GOMBE", ConsumptionKWh: 2929, UptimeHours: 3.6, VoltageClass: "11Kv Feeder", Station: "SHONGO ISS", Status: StatusOnline},
							{FeederID: 743, Name: "TUNFURE", ConsumptionKWh: 4516, UptimeHours: 3.6, VoltageClass: "11Kv Feeder", Station: "SHONGO ISS", Status: StatusOnline},
						},
					},
				},
			},
			{
				Name: "Makari Jos",
				TradingPoints: []TradingPoint{
					{
						Name: "MAKERI",
						Feeders: []Feeder{
							{FeederID: 733, Name: "MAKERI", ConsumptionKWh: 8338, UptimeHours: 3.6, VoltageClass: "33Kv Feeder", Station: "MAKERI TS", Status: StatusOnline},
							{FeederID: 806, Name: "INDUSTRIAL JOS", ConsumptionKWh: 0, UptimeHours: 0, VoltageClass: "11Kv Feeder", Station: "MAKERI ISS", Status: StatusOffline},
							{FeederID: 807, Name: "COCA COLA", ConsumptionKWh: 0, UptimeHours: 0, VoltageClass: "11Kv Feeder", Station: "MAKERI ISS", Status: StatusOffline},
						},
					},
					{
						Name: "BUKURU",
						Feeders: []Feeder{
							{FeederID: 728, Name: "BUKURU", ConsumptionKWh: 17431, UptimeHours: 3.6, VoltageClass: "33Kv Feeder", Station: "MAKERI TS", Status: StatusOnline},
						},
					},
				},
			},
			{
				Name: "Zaria Road Jos",
				TradingPoints: []TradingPoint{
					{
						Name: "ANGLO JOS",
						Feeders: []Feeder{
							{FeederID: 816, Name: "WEST OF MINES", ConsumptionKWh: 4417, UptimeHours: 12.6, VoltageClass: "11Kv Feeder", Station: "WEST OF MINES ISS", Status: StatusOnline},
						},
					},
					{
						Name: "DOGON DUTSE",
						Feeders: []Feeder{
							{FeederID: 826, Name: "UNIJOS", ConsumptionKWh: 0, UptimeHours: 0, VoltageClass: "11Kv Feeder", Station: "UNIJOS ISS", Status: StatusOffline},
						},
					},
				},
			},
		},
	}
}

// FixtureHistory is the built-in series substituted for any feeder whose
// history cannot be fetched.
func FixtureHistory() []HistoryRecord {
	return []HistoryRecord{
		{SnapshotTime: MustTimestamp("2026-01-07T08:00:00"), ConsumptionKWh: 5200, UptimeHours: 2.5, Status: StatusOnline},
		{SnapshotTime: MustTimestamp("2026-01-07T12:00:00"), ConsumptionKWh: 8100, UptimeHours: 6.5, Status: StatusOnline},
		{SnapshotTime: MustTimestamp("2026-01-07T18:00:00"), ConsumptionKWh: 12400, UptimeHours: 12.3, Status: StatusOnline},
		{SnapshotTime: MustTimestamp("2026-01-08T00:00:00"), ConsumptionKWh: 15800, UptimeHours: 18.2, Status: StatusOnline},
		{SnapshotTime: MustTimestamp("2026-01-08T06:00:00"), ConsumptionKWh: 18900, UptimeHours: 24.0, Status: StatusOnline},
	}
}
