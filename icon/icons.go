package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota
	Success
	Progress
	Playing
	Paused
	Stopped
	Resolving
	Volume
	Mirror
	Hidden
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "X",
		kaomoji: "(×_×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "OK",
		kaomoji: "(ᵔᴥᵔ)",
		squares: "🟩",
	},
	Progress: {
		emoji:   "⏳",
		nerd:    "",
		plain:   "...",
		kaomoji: "(•_•)",
		squares: "🟨",
	},
	Playing: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "♪(´▽｀)",
		squares: "🟦",
	},
	Paused: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(-_-)zzz",
		squares: "🟪",
	},
	Stopped: {
		emoji:   "⏹️",
		nerd:    "",
		plain:   "[]",
		kaomoji: "(・_・)",
		squares: "⬛",
	},
	Resolving: {
		emoji:   "🔎",
		nerd:    "",
		plain:   "?",
		kaomoji: "(°ロ°)",
		squares: "🟧",
	},
	Volume: {
		emoji:   "🔊",
		nerd:    "",
		plain:   "vol",
		kaomoji: "ヽ(°〇°)ﾉ",
		squares: "🟫",
	},
	Mirror: {
		emoji:   "🔗",
		nerd:    "",
		plain:   "@",
		kaomoji: "(｡•̀ᴗ-)",
		squares: "⬜",
	},
	Hidden: {
		emoji:   "🙈",
		nerd:    "",
		plain:   "-",
		kaomoji: "(⌒_⌒;)",
		squares: "◻️",
	},
}
