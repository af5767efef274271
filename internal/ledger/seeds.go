package ledger

// builtinSeeds returns a curated seed of popular franchises whose reading
// order shows up constantly in scanned catalogs. Keys are lowercase author
// names; values map series name to the canonical title ordering.
func builtinSeeds() map[string]map[string][]string {
	return map[string]map[string][]string{
		"tom clancy": {
			"Jack Ryan": {
				"Patriot Games",
				"The Hunt for Red October",
				"The Cardinal of the Kremlin",
				"Clear and Present Danger",
				"The Sum of All Fears",
				"Debt of Honor",
				"Executive Orders",
				"Rainbow Six",
				"The Bear and the Dragon",
				"Red Rabbit",
				"The Teeth of the Tiger",
				"Dead or Alive",
				"Locked On",
				"Threat Vector",
				"Command Authority",
				"Support and Defend",
				"Full Force and Effect",
				"Commander-in-Chief",
				"True Faith and Allegiance",
				"Point of Contact",
				"Power and Empire",
				"Line of Sight",
				"Oath of Office",
				"Code of Honor",
				"Firing Point",
				"Shadow of the Dragon",
				"Chain of Command",
				"Zero Hour",
				"Red Winter",
				"Weapons Grade",
			},
		},
		"james patterson": {
			"Alex Cross": {
				"Along Came a Spider",
				"Kiss the Girls",
				"Jack & Jill",
				"Cat & Mouse",
				"Pop Goes the Weasel",
				"Roses Are Red",
				"Violets Are Blue",
				"Four Blind Mice",
				"The Big Bad Wolf",
				"London Bridges",
				"Mary, Mary",
				"Cross",
				"Double Cross",
				"Cross Country",
				"Alex Cross's Trial",
				"I, Alex Cross",
				"Cross Fire",
				"Kill Alex Cross",
				"Merry Christmas, Alex Cross",
				"Alex Cross, Run",
				"Cross My Heart",
				"Hope to Die",
				"Cross Justice",
				"Cross Kill",
				"Cross the Line",
				"The People vs. Alex Cross",
				"Target: Alex Cross",
				"Criss Cross",
				"Deadly Cross",
				"Fear No Evil",
				"Triple Cross",
				"Alex Cross Must Die",
			},
		},
		"robert ludlum": {
			"Jason Bourne": {
				"The Bourne Identity",
				"The Bourne Supremacy",
				"The Bourne Ultimatum",
				"The Bourne Legacy",
				"The Bourne Betrayal",
				"The Bourne Sanction",
				"The Bourne Deception",
				"The Bourne Objective",
				"The Bourne Dominion",
				"The Bourne Imperative",
				"The Bourne Retribution",
				"The Bourne Ascendancy",
				"The Bourne Enigma",
				"The Bourne Initiative",
				"The Bourne Evolution",
				"The Bourne Treachery",
				"The Bourne Sacrifice",
			},
		},
		"joshua hood": {
			"Treadstone": {
				"Robert Ludlum's The Treadstone Resurrection",
				"Robert Ludlum's The Treadstone Exile",
				"Robert Ludlum's The Treadstone Transgression",
				"Robert Ludlum's The Treadstone Rendition",
			},
		},
	}
}
