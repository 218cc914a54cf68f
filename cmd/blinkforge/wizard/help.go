package wizard

// HelpText describes one form field.
type HelpText struct {
	Title       string
	Description string
	Details     string
}

// Texts holds help for every wizard field, keyed by field key.
var Texts = map[string]HelpText{
	"frames": {
		Title:       "FRAMES",
		Description: "Number of simulated camera frames.",
		Details:     "A typical STORM acquisition records 10,000 to 50,000 frames.",
	},
	"blinks_per_frame": {
		Title:       "BLINKS PER FRAME",
		Description: "Mean number of blink events per frame.",
		Details: `floor(frames*rate) events are spread at a fixed cadence of
frames/events frames (integer division), starting at frame 1.
10 frames at 0.15 give 1 event. Must be <= 1.`,
	},
	"radius": {
		Title:       "PARTICLE RADIUS",
		Description: "Radius of the particle disk, in nanometers.",
		Details:     "Positions are drawn uniformly over the disk area. Gag VLPs are about 75 nm.",
	},
	"seed": {
		Title:       "SEED",
		Description: "Random seed for reproducible tables.",
		Details:     "0 derives the seed from the output path, so the same path gives the same table.",
	},
	"output": {
		Title:       "OUTPUT PATH",
		Description: "Base path of the localization table.",
		Details:     "Other formats reuse it with their own extension (.arrow, .db).",
	},
	"formats": {
		Title:       "OUTPUT FORMATS",
		Description: "Sinks the table is written to.",
		Details: `csv      - comma-separated text with the ThunderSTORM-style header
arrow    - Arrow IPC file
sqlite   - SQLite database (runs + localizations tables)`,
	},
	"action": {
		Title:       "ACTION",
		Description: "What to do with this configuration.",
	},
	"config_path": {
		Title:       "CONFIG FILE",
		Description: "YAML file the configuration is written to.",
		Details:     "Reuse it with: blinkforge run --config <file>",
	},
}
