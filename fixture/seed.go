package fixture

import (
	"fmt"
	"time"
)

var (
	seedPrefixes = []string{
		"Ancient", "Arcane", "Ashen", "Blood", "Bog", "Cloud", "Coral", "Crypt",
		"Dawn", "Dream", "Dusk", "Ember", "Fen", "Field", "Frost", "Ghost",
		"Glade", "Grave", "Grove", "Harbor", "Hedge", "Hill", "Iron", "Jade",
		"Moon", "Mountain", "Night", "Oak", "River", "Salt", "Sand", "Shadow",
		"Silver", "Sky", "Storm", "Sun",
	}
	// Every prefix is combined with every base, so the "mage" bases alone
	// yield three result pages.
	seedMageBases  = []string{"Mage", "Archmage", "Spellmage", "Mage-Knight"}
	seedOtherBases = []string{"Drake", "Sentinel", "Wurm", "Golem"}

	seedNamed = []string{
		"Gandalf the Grey",
		"Gandalf the White",
		"Gandalf, Friend of the Shire",
		"Gandalf, White Rider",
		"Gandalf's Sanction",
		"Black Lotus",
		"Lotus Petal",
		"Lotus Cobra",
		"Lotus Bloom",
		"Gilded Lotus",
		"Jeweled Lotus",
		"Lotus Field",
		"Sol Ring",
		"Lightning Bolt",
		"Counterspell",
	}

	seedSets     = []string{"lea", "arn", "leg", "ice", "mir", "tmp", "usg", "inv", "ons", "mrd", "rav", "lrw", "zen", "isd", "ths", "ktk", "kld", "dom", "eld", "ltr"}
	seedRarities = []string{"common", "uncommon", "rare", "mythic"}
	seedEpoch    = time.Date(1993, time.August, 5, 0, 0, 0, 0, time.UTC)
)

// SeedCards builds the deterministic catalogue the fixture serves.
func SeedCards() []Card {
	var names []string
	names = append(names, seedNamed...)
	for _, base := range seedMageBases {
		for _, p := range seedPrefixes {
			names = append(names, p+" "+base)
		}
	}
	for _, base := range seedOtherBases {
		for _, p := range seedPrefixes {
			names = append(names, p+" "+base)
		}
	}

	cards := make([]Card, len(names))
	for i, name := range names {
		cards[i] = Card{
			Name:            name,
			SetCode:         seedSets[i%len(seedSets)],
			CollectorNumber: fmt.Sprintf("%d", i/len(seedSets)+1),
			Rarity:          seedRarities[i%len(seedRarities)],
			ManaValue:       float64(i % 8),
			ReleasedAt:      seedEpoch.AddDate(0, 0, (i*37)%11000),
		}
	}
	return cards
}
