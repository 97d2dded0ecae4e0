package seed

var (
	regions = []string{
		"Bretagne", "Normandie", "Provence", "Alsace", "Auvergne", "Occitanie",
		"Bourgogne", "Savoie", "Pays basque", "Corse", "Lorraine", "Picardie",
		"Limousin", "Périgord", "Champagne", "Vendée",
	}

	titleOpenings = []string{
		"L'art de", "Le secret de", "La méthode ancestrale pour", "Comment réussir",
		"Les gestes oubliés de", "Le savoir-faire de", "Petit traité de", "Les règles de",
	}

	subjects = []string{
		"la fermentation du levain", "la taille des rosiers anciens", "la teinture au pastel",
		"la conservation des pommes", "la vannerie d'osier", "la fabrication du savon",
		"la cuisson au four à bois", "la lecture des nuages", "la greffe des arbres fruitiers",
		"la fabrication du beurre", "la maçonnerie en pierre sèche", "le tressage des paniers",
		"la récolte du miel", "la distillation de la lavande", "le séchage des herbes",
		"la fabrication du cidre", "le filage de la laine", "le rempaillage des chaises",
		"la culture des simples", "la préparation des confitures",
	}

	excerptOpenings = []string{
		"Une technique transmise de génération en génération autour de",
		"Ce que nos grands-parents savaient sur",
		"Un geste simple et précis pour maîtriser",
		"Retour sur une pratique paysanne centrée sur",
	}

	contentSentences = []string{
		"On commence toujours par choisir un matériau de bonne qualité, récolté à la bonne saison.",
		"Les anciens conseillaient de travailler tôt le matin, quand l'air est encore frais.",
		"Il faut laisser reposer une nuit entière avant de passer à l'étape suivante.",
		"La patience compte davantage que la force, et chaque geste doit rester régulier.",
		"Un outil bien entretenu dure toute une vie et se transmet ensuite aux enfants.",
		"Dans certains villages, on ajoutait une pincée de sel pour améliorer le résultat.",
		"La lune montante était réputée favorable à ce type de travail.",
		"Le résultat se conserve plusieurs mois dans un endroit sec et sombre.",
		"Les erreurs les plus fréquentes viennent d'une chaleur trop forte ou trop rapide.",
		"On reconnaît un travail réussi à son odeur, à sa couleur et à sa tenue.",
	}

	tagPool = []string{
		"tradition", "cuisine", "jardin", "artisanat", "conservation", "nature",
		"patrimoine", "fermentation", "textile", "bois", "pierre", "plantes",
	}

	commentLines = []string{
		"Ma grand-mère faisait exactement pareil, merci pour ce partage !",
		"Est-ce que cela fonctionne aussi en hiver ?",
		"Très clair, je vais essayer ce week-end.",
		"Dans ma région on ajoutait un peu de vinaigre.",
		"Quelle quantité faut-il prévoir pour une famille ?",
		"Superbe article, bien documenté.",
		"J'ai testé, le résultat est bluffant.",
		"Avez-vous une source pour la partie historique ?",
	}
)
