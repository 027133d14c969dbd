package chatbot

import (
	"fmt"
	"regexp"
	"strings"
)

// intent pairs a pattern with its renderer. The table below is evaluated
// top to bottom against the lowercased input and the first match wins, so
// the order is part of the behavior: "parle-moi de tes projets et
// compétences" must answer about skills, not projects.
type intent struct {
	name    string
	pattern *regexp.Regexp
	render  func(bc *botContext) string
}

var intents = []intent{
	{
		name:    "skills",
		pattern: regexp.MustCompile(`comp[ée]tence|skill|technolog|stack|langage|programming`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Skills == "" {
					return fmt.Sprintf("%s is still filling in the skills section, come back soon!", bc.Name)
				}
				return fmt.Sprintf("Here are the main skills of %s: %s. Check the Skills page for levels and details!", bc.Name, bc.Skills)
			}
			if bc.Skills == "" {
				return fmt.Sprintf("%s n'a pas encore rempli la section compétences, revenez bientôt !", bc.Name)
			}
			return fmt.Sprintf("Voici les principales compétences de %s : %s. Consultez la page Compétences pour les niveaux et les détails !", bc.Name, bc.Skills)
		},
	},
	{
		name:    "projects",
		pattern: regexp.MustCompile(`projet|project|portfolio|r[ée]alisation|travaux|work`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Projects == "" {
					return "No projects are published yet, but some are on the way!"
				}
				return fmt.Sprintf("Here are some projects worth a look: %s. You will find screenshots and links on the Projects page.", bc.Projects)
			}
			if bc.Projects == "" {
				return "Aucun projet n'est encore publié, mais ça arrive bientôt !"
			}
			return fmt.Sprintf("Voici quelques projets à découvrir : %s. Vous trouverez captures et liens sur la page Projets.", bc.Projects)
		},
	},
	{
		name:    "contact",
		pattern: regexp.MustCompile(`contact|email|mail|joindre|t[ée]l[ée]phone|message|[ée]crire|reach`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Email != "" {
					return fmt.Sprintf("You can reach %s at %s, or use the contact form on the Contact page.", bc.Name, bc.Email)
				}
				return "The easiest way to get in touch is the form on the Contact page."
			}
			if bc.Email != "" {
				return fmt.Sprintf("Vous pouvez joindre %s à l'adresse %s, ou utiliser le formulaire de la page Contact.", bc.Name, bc.Email)
			}
			return "Le plus simple pour prendre contact est le formulaire de la page Contact."
		},
	},
	{
		name:    "downloads",
		pattern: regexp.MustCompile(`\bcv\b|curriculum|resume|t[ée]l[ée]charg|download|attestation|diplôme|certificat`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				return fmt.Sprintf("The CV of %s and other documents are available in the Downloads section, in PDF format.", bc.Name)
			}
			return fmt.Sprintf("Le CV de %s et d'autres documents sont disponibles dans la section Téléchargements, au format PDF.", bc.Name)
		},
	},
	{
		name:    "experience",
		pattern: regexp.MustCompile(`exp[ée]rience|carri[èe]re|poste|emploi|job|entreprise|professionnel`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Experiences == "" {
					return fmt.Sprintf("The career history of %s is being written up, check the Experience page soon.", bc.Name)
				}
				return fmt.Sprintf("Recent experience of %s: %s. The full history is on the Experience page.", bc.Name, bc.Experiences)
			}
			if bc.Experiences == "" {
				return fmt.Sprintf("Le parcours professionnel de %s est en cours de rédaction, repassez bientôt sur la page Expérience.", bc.Name)
			}
			return fmt.Sprintf("Expériences récentes de %s : %s. Le parcours complet est sur la page Expérience.", bc.Name, bc.Experiences)
		},
	},
	{
		name:    "education",
		pattern: regexp.MustCompile(`formation|[ée]tude|[ée]cole|universit|diplom|education|degree|study`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Formations == "" {
					return fmt.Sprintf("The education section of %s is not filled in yet.", bc.Name)
				}
				return fmt.Sprintf("Education of %s: %s.", bc.Name, bc.Formations)
			}
			if bc.Formations == "" {
				return fmt.Sprintf("La section formation de %s n'est pas encore remplie.", bc.Name)
			}
			return fmt.Sprintf("Formations de %s : %s.", bc.Name, bc.Formations)
		},
	},
	{
		name:    "about",
		pattern: regexp.MustCompile(`qui es[- ]tu|qui est|[àa] propos|pr[ée]sente|about|yourself|parle[- ]moi de toi`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.About != "" {
					return fmt.Sprintf("A few words about %s: %s", bc.Name, bc.About)
				}
				return fmt.Sprintf("This is the portfolio of %s. Browse the pages to discover projects, skills and experience!", bc.Name)
			}
			if bc.About != "" {
				return fmt.Sprintf("Quelques mots sur %s : %s", bc.Name, bc.About)
			}
			return fmt.Sprintf("Vous êtes sur le portfolio de %s. Parcourez les pages pour découvrir projets, compétences et expériences !", bc.Name)
		},
	},
	{
		name:    "navigation",
		pattern: regexp.MustCompile(`naviguer|navigation|o[ùu] (trouver|est)|comment (acc[ée]der|aller)|menu|page|site`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				return "Use the top menu to browse: Home, Projects, Skills, Experience, Downloads and Contact. Everything is one click away."
			}
			return "Utilisez le menu en haut pour naviguer : Accueil, Projets, Compétences, Expérience, Téléchargements et Contact. Tout est à un clic."
		},
	},
	{
		name:    "interests",
		pattern: regexp.MustCompile(`int[ée]r[êe]t|passion|hobby|hobbies|loisir|aime`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Interests == "" {
					return fmt.Sprintf("%s has not listed interests yet.", bc.Name)
				}
				return fmt.Sprintf("Outside of work, %s enjoys: %s.", bc.Name, bc.Interests)
			}
			if bc.Interests == "" {
				return fmt.Sprintf("%s n'a pas encore listé ses centres d'intérêt.", bc.Name)
			}
			return fmt.Sprintf("En dehors du travail, %s apprécie : %s.", bc.Name, bc.Interests)
		},
	},
	{
		name:    "why-chatbot",
		pattern: regexp.MustCompile(`pourquoi.*(chatbot|bot|assistant)|why.*(chatbot|bot|assistant)|tu sers [àa] quoi`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				return "I am a small assistant built into this portfolio to help you find information quickly. Ask me about skills, projects or how to get in touch!"
			}
			return "Je suis un petit assistant intégré à ce portfolio pour vous aider à trouver l'information rapidement. Demandez-moi les compétences, les projets ou comment prendre contact !"
		},
	},
	{
		name:    "testimonials",
		pattern: regexp.MustCompile(`t[ée]moignage|avis|recommandation|testimonial|review|reference`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				if bc.Testimonials == "" {
					return "No testimonials are published yet."
				}
				return fmt.Sprintf("People who left a testimonial: %s. Read them on the home page.", bc.Testimonials)
			}
			if bc.Testimonials == "" {
				return "Aucun témoignage n'est encore publié."
			}
			return fmt.Sprintf("Des témoignages ont été laissés par : %s. Retrouvez-les sur la page d'accueil.", bc.Testimonials)
		},
	},
	{
		name:    "greeting",
		pattern: regexp.MustCompile(`bonjour|salut|coucou|bonsoir|hello|\bhi\b|hey|aide|help`),
		render: func(bc *botContext) string {
			if bc.Language == "en" {
				return fmt.Sprintf("Hello! I am the assistant of %s. I can tell you about skills, projects, experience, or how to get in touch. What would you like to know?", bc.Name)
			}
			return fmt.Sprintf("Bonjour ! Je suis l'assistant de %s. Je peux vous parler des compétences, des projets, du parcours, ou vous dire comment prendre contact. Que voulez-vous savoir ?", bc.Name)
		},
	},
}

// classify returns the rendered answer for the first matching intent, or
// the default help when nothing matches.
func classify(input string, bc *botContext) (string, string) {
	lowered := strings.ToLower(input)
	for _, it := range intents {
		if it.pattern.MatchString(lowered) {
			return it.name, it.render(bc)
		}
	}
	return "default", defaultHelp(bc)
}

func defaultHelp(bc *botContext) string {
	if bc.Language == "en" {
		return "I am not sure I understood. Try asking about skills, projects, experience, education, or how to contact me!"
	}
	return "Je ne suis pas sûr d'avoir compris. Essayez de me demander les compétences, les projets, l'expérience, les formations, ou comment me contacter !"
}
