package generator

import (
	"fmt"
	"strings"

	"github.com/civilmastersolution/cms-backend/pkg/models"
)

// maxExamplesPerTopic bounds prompt size: each topic bucket contributes at
// most this many Q&A excerpts.
const maxExamplesPerTopic = 2

// historyTurns is how many recent exchanges are included for context.
const historyTurns = 3

// topic buckets, in the order they appear in the prompt
var topicOrder = []string{
	"company", "products", "technical", "projects",
	"standards", "cost", "partnership", "contact",
}

// topicKeywords assigns a knowledge-base question to the first bucket whose
// keyword it contains.
var topicKeywords = map[string][]string{
	"company":     {"cms", "company", "mission", "vision", "values", "culture", "behind", "founded", "who"},
	"products":    {"product", "fiber", "steel", "synthetic", "ductil", "armour", "pp", "pan", "micro"},
	"technical":   {"technical", "design", "engineering", "drawing", "optimization", "tensile", "strength", "uhpfrc"},
	"projects":    {"project", "warehouse", "pavement", "industrial", "flooring", "example", "biggest", "completed"},
	"standards":   {"standard", "aci", "en", "tr34", "aisc", "compliance", "international"},
	"cost":        {"cost", "price", "comparison", "budget", "savings", "value engineering"},
	"partnership": {"partner", "collaboration", "distributor", "training", "warranty", "support"},
	"contact":     {"contact", "email", "call", "visit", "response time", "help"},
}

var stylePreamble = map[models.Language]string{
	models.LangEnglish: `You are CMSbot, the AI expert assistant for Civil Master Solution (CMS), Thailand's leading Steel Fiber Reinforced Concrete (SFRC) solutions provider.

Response guidelines:
1. Answer directly in the first sentence, then add 1-2 supporting sentences with specific benefits, standards (EN 14889, ACI 360, TR34), or real-world applications.
2. Keep the total to 2-3 sentences.
3. Use ONLY information from the KNOWLEDGE BASE examples below; never fabricate data.
4. Use precise technical terminology suited to engineers.
5. If the question is outside scope or you are uncertain, recommend contacting ` + ContactEmail + ` and explain why direct consultation helps.`,
	models.LangThai: `คุณคือ CMSbot ผู้ช่วย AI เชี่ยวชาญของ Civil Master Solution (CMS) บริษัทไทยผู้นำด้าน Steel Fiber Reinforced Concrete (SFRC)

วิธีการตอบ:
1. ตอบตรงประเด็นในประโยคแรก แล้วเสริม 1-2 ประโยคด้วยข้อดีเฉพาะ มาตรฐาน (EN 14889, ACI 360, TR34) หรือตัวอย่างการใช้งานจริง
2. รวมทั้งหมด 2-3 ประโยค กระชับแต่สมบูรณ์
3. ใช้เฉพาะข้อมูลจาก KNOWLEDGE BASE ด้านล่าง ห้ามแต่งข้อมูลเพิ่ม
4. ใช้คำศัพท์เทคนิคที่เหมาะสมสำหรับวิศวกร
5. หากคำถามอยู่นอกขอบเขตหรือไม่แน่ใจ ให้แนะนำติดต่อ ` + ContactEmail,
}

// BuildPrompt assembles the full generation prompt: style preamble,
// categorized knowledge-base excerpts, company profile, the last few history
// turns, and the current question.
func BuildPrompt(question string, candidates []models.QAPair, profile models.CompanyProfile, lang models.Language, history []models.Exchange) string {
	var b strings.Builder

	preamble, ok := stylePreamble[lang]
	if !ok {
		preamble = stylePreamble[models.LangEnglish]
	}
	b.WriteString(preamble)
	b.WriteString("\n")
	b.WriteString(knowledgeExcerpts(candidates))
	b.WriteString("\n")

	fmt.Fprintf(&b, "Company: %s\n", profile.Name)
	fmt.Fprintf(&b, "Specialty: %s\n", profile.Specialty)
	fmt.Fprintf(&b, "Core Services: %s\n", strings.Join(profile.Services, ", "))
	fmt.Fprintf(&b, "Main Products: %s\n\n", strings.Join(profile.Products, ", "))

	if len(history) > 0 {
		b.WriteString("RECENT CONVERSATION CONTEXT:\n")
		start := len(history) - historyTurns
		if start < 0 {
			start = 0
		}
		for _, turn := range history[start:] {
			fmt.Fprintf(&b, "User: %s\nCMSbot: %s\n\n", turn.Question, turn.Answer)
		}
	}

	fmt.Fprintf(&b, "\nCURRENT USER QUESTION: %s\n\n", question)
	b.WriteString("CMSbot Response (2-3 sentences, based on KNOWLEDGE BASE):")

	return b.String()
}

// knowledgeExcerpts groups candidates into topic buckets and renders at most
// maxExamplesPerTopic per bucket, preserving knowledge-base order within
// each.
func knowledgeExcerpts(candidates []models.QAPair) string {
	buckets := make(map[string][]models.QAPair)
	for _, qa := range candidates {
		topic, ok := classify(qa.Question)
		if !ok {
			continue
		}
		buckets[topic] = append(buckets[topic], qa)
	}

	var b strings.Builder
	b.WriteString("\nKNOWLEDGE BASE EXAMPLES (Base your answers on these):\n\n")
	for _, topic := range topicOrder {
		qas := buckets[topic]
		if len(qas) == 0 {
			continue
		}
		fmt.Fprintf(&b, "--- %s ---\n", strings.ToUpper(topic))
		if len(qas) > maxExamplesPerTopic {
			qas = qas[:maxExamplesPerTopic]
		}
		for _, qa := range qas {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n\n", qa.Question, qa.Answer)
		}
	}
	return b.String()
}

func classify(question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, topic := range topicOrder {
		for _, kw := range topicKeywords[topic] {
			if strings.Contains(lower, kw) {
				return topic, true
			}
		}
	}
	return "", false
}
