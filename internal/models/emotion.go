package models

import "time"

// EmotionEntry is the single mood record a user keeps per day.
// Its ID is always EmotionEntryID(UserID, DateString).
type EmotionEntry struct {
	ID           string    `json:"-"`
	UserID       string    `json:"userId"`
	EmotionID    string    `json:"emotionId"`
	EmotionEmoji string    `json:"emotionEmoji"`
	EmotionText  string    `json:"emotionText"`
	Adjective    string    `json:"adjective"`
	Note         string    `json:"note"`
	DateString   string    `json:"dateString"` // YYYY-MM-DD format
	Timestamp    time.Time `json:"timestamp"`
}

// EmotionEntryID is the deterministic per-day document id.
func EmotionEntryID(userID, day string) string {
	return userID + "_" + day
}

// Emotion is one of the fixed moods offered by the entry flow.
type Emotion struct {
	ID          string
	Emoji       string
	Text        string
	Adjectives  []string
	Suggestions []string
}

var Emotions = []Emotion{
	{
		ID: "alegre", Emoji: "😄", Text: "Alegre",
		Adjectives: []string{"Contento", "Entusiasmado", "Satisfecho", "Optimista", "Divertido", "Eufórico"},
		Suggestions: []string{
			"Comparte tu buena energía llamando a un amigo.",
			"Anota 3 cosas por las que estás agradecido hoy.",
			"Aprovecha este impulso para realizar una tarea difícil.",
			"Date un pequeño gusto o premio, te lo mereces.",
		},
	},
	{
		ID: "neutral", Emoji: "😐", Text: "Neutral",
		Adjectives: []string{"Indiferente", "Sereno", "Tranquilo", "Impasible", "Objetivo", "Despreocupado"},
		Suggestions: []string{
			"Es un buen momento para leer o aprender algo nuevo.",
			"Organiza tu agenda para mañana con calma.",
			"Dedica 5 minutos a meditar sin expectativas.",
			"Haz estiramientos suaves para activar tu cuerpo.",
		},
	},
	{
		ID: "triste", Emoji: "😢", Text: "Triste",
		Adjectives: []string{"Melancólico", "Desanimado", "Deprimido", "Nostálgico", "Afligido", "Desconsolado"},
		Suggestions: []string{
			"Está bien no estar bien, date permiso de sentir.",
			"Habla con alguien de confianza, no te aísles.",
			"Sal a caminar 10 minutos para tomar aire fresco.",
			"Escribe lo que sientes en una hoja y luego rómpela.",
		},
	},
	{
		ID: "molesto", Emoji: "😠", Text: "Molesto",
		Adjectives: []string{"Irritado", "Frustrado", "Enfadado", "Furioso", "Fastidiado", "Resentido"},
		Suggestions: []string{
			"Realiza la técnica 4-7-8: inhala en 4s, retén 7s, exhala 8s.",
			"Aléjate físicamente de la situación que te enojó.",
			"Haz ejercicio intenso para quemar la adrenalina.",
			"Lávate la cara con agua fría.",
		},
	},
	{
		ID: "nervioso", Emoji: "😰", Text: "Nervioso",
		Adjectives: []string{"Ansioso", "Inquieto", "Tenso", "Preocupado", "Temeroso", "Alterado"},
		Suggestions: []string{
			"Usa la técnica 5-4-3-2-1 para conectarte con el presente.",
			"Haz una lista de lo que sí puedes controlar ahora.",
			"Bebe un vaso de agua lentamente.",
			"Cierra los ojos y visualiza un lugar seguro por 2 minutos.",
		},
	},
}

// EmotionByID looks up a catalog emotion.
func EmotionByID(id string) (Emotion, bool) {
	for _, e := range Emotions {
		if e.ID == id {
			return e, true
		}
	}
	return Emotion{}, false
}

// HasAdjective reports whether adj belongs to the emotion's adjective list.
func (e Emotion) HasAdjective(adj string) bool {
	for _, a := range e.Adjectives {
		if a == adj {
			return true
		}
	}
	return false
}

// Quotes are the motivational lines shown on the home screen.
var Quotes = []string{
	"El éxito es la suma de pequeños esfuerzos repetidos cada día.",
	"Tu actitud determina tu dirección.",
	"Hoy es un buen día para tener un gran día.",
	"Pequeños pasos te llevan a grandes lugares.",
	"La disciplina te lleva donde la motivación no alcanza.",
	"La calma es un superpoder.",
	"Respira, suelta y confía.",
	"Un día a la vez.",
	"A veces, descansar es lo más productivo que puedes hacer.",
	"Eres más fuerte de lo que crees.",
	"Sé amable contigo mismo.",
	"Tus emociones son válidas.",
	"Mañana será una nueva oportunidad.",
	"Lo estás haciendo mejor de lo que piensas.",
}
