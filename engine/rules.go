package engine

// Rules holds the tunable parameters of a match. Distances are in world
// units (pixels at the reference 60-tick/s rate); durations are in ticks.
type Rules struct {
	KillRange       float64 // max killer-victim distance
	BodyDetectRange float64 // crew can spot a dead body within this

	KillCooldownTicks    uint32 // imposter kill cooldown (600 = 10 s)
	MeetingCooldownTicks uint32 // blocks re-triggering after a meeting (900 = 15 s)

	AlertTicks    uint32 // emergency splash window (90 = 1.5 s)
	DialogueTicks uint32 // dialogue window (360 = 6 s)
	VoteTicks     uint32 // vote window (600 = 10 s)
	EjectTicks    uint32 // ejection display window (180 = 3 s)

	MaxMatchTicks    uint64 // hard ceiling; crew wins by default (36000 = 10 min)
	AutoMeetingTicks uint64 // fallback meeting interval (7200 = 2 min)

	MoveSpeed     float64 // per-tick displacement of a moving agent
	Width, Height float64 // world bounds; positions are clamped inside

	SpawnPoints []Vec2 // post-meeting respawn slots, assigned round-robin
}

// DefaultRules returns the reference parameter set.
func DefaultRules() Rules {
	return Rules{
		KillRange:            120,
		BodyDetectRange:      200,
		KillCooldownTicks:    600,
		MeetingCooldownTicks: 900,
		AlertTicks:           90,
		DialogueTicks:        360,
		VoteTicks:            600,
		EjectTicks:           180,
		MaxMatchTicks:        36000,
		AutoMeetingTicks:     7200,
		MoveSpeed:            5,
		Width:                2048,
		Height:               1536,
		SpawnPoints: []Vec2{
			{X: 1024, Y: 768},
			{X: 824, Y: 768},
			{X: 1224, Y: 768},
			{X: 1024, Y: 568},
			{X: 1024, Y: 968},
			{X: 824, Y: 568},
			{X: 1224, Y: 568},
			{X: 824, Y: 968},
			{X: 1224, Y: 968},
			{X: 1024, Y: 368},
		},
	}
}
