package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/AyoubKhan990/teach-flow-lms/internal/domain"
)

// TemplateGenerator is the deterministic fallback: it always produces a
// structurally valid document inside the target word window, without calling
// any external provider.
type TemplateGenerator struct{}

func NewTemplateGenerator() *TemplateGenerator { return &TemplateGenerator{} }

func (*TemplateGenerator) Name() string { return "template" }

var sectionTitles = []string{"Background", "Core Concepts", "Analysis", "Applications", "Challenges"}

type languagePack struct {
	abstract     string
	introduction string
	section      string
	conclusion   string
	longFillers  []string
	shortFillers []string
}

var languagePacks = map[string]languagePack{
	"English": {
		abstract:     "This paper examines %[1]s within the field of %[2]s. It outlines the central concepts, reviews how they are applied in practice, and weighs the main limitations. The aim is to give the reader a clear and structured account of the topic that supports further study.",
		introduction: "%[1]s has become an important topic in %[2]s, and a careful treatment of it requires both clear definitions and concrete examples. This document introduces the key ideas step by step, moving from foundations to applications. Each section builds on the previous one so that the argument remains easy to follow.",
		section:      "The section on %[3]s places %[1]s in a wider context. It identifies the assumptions that shape current practice in %[2]s, explains the mechanisms at work, and notes where the evidence is strong and where it remains contested. Concrete cases illustrate how the general principles behave under realistic constraints.",
		conclusion:   "In summary, %[1]s rewards careful study. The preceding sections defined the core terms, examined the mechanisms that matter most in %[2]s, and reviewed practical applications alongside their limits. The main lesson is that strong work stays specific, supports claims with evidence, and keeps its reasoning easy to follow.",
		longFillers: []string{
			"A further point deserves attention here. Practitioners who approach the topic with clear goals tend to produce better results, because each decision can be checked against a stated purpose. Vague aims, by contrast, invite conclusions that sound plausible but resist verification, which weakens the overall argument.",
			"It is also worth noting the role of constraints. Time, cost, and available data all shape what a realistic solution can look like, and ignoring them produces recommendations that fail in practice. Strong analysis states its constraints openly and explains how they influenced the chosen approach.",
			"Comparison with neighbouring ideas sharpens the picture. When two approaches promise similar outcomes, the differences in their assumptions often matter more than the differences in their results. Examining those assumptions side by side reveals which method suits a given situation and why.",
		},
		shortFillers: []string{
			"This point merits brief additional emphasis here.",
			"The same reasoning applies in related settings.",
			"Careful readers will note the parallel structure.",
		},
	},
	"Urdu": {
		abstract:     "یہ مقالہ %[2]s کے میدان میں %[1]s کا جائزہ لیتا ہے۔ اس میں بنیادی تصورات کی وضاحت کی گئی ہے، عملی استعمال کا جائزہ لیا گیا ہے، اور اہم حدود پر غور کیا گیا ہے۔ مقصد یہ ہے کہ قاری کو موضوع کی واضح اور منظم تفہیم حاصل ہو۔",
		introduction: "%[2]s میں %[1]s ایک اہم موضوع بن چکا ہے، اور اس کے محتاط مطالعے کے لیے واضح تعریفیں اور ٹھوس مثالیں دونوں ضروری ہیں۔ یہ دستاویز بنیادی خیالات کو مرحلہ وار پیش کرتی ہے، بنیادوں سے عملی استعمال تک۔ ہر حصہ پچھلے حصے پر استوار ہے تاکہ دلیل سمجھنے میں آسان رہے۔",
		section:      "%[3]s کا حصہ %[1]s کو وسیع تناظر میں رکھتا ہے۔ اس میں %[2]s کے موجودہ طریقۂ کار کی بنیادی مفروضات کی نشاندہی کی گئی ہے، کارفرما عوامل کی وضاحت کی گئی ہے، اور یہ بتایا گیا ہے کہ شواہد کہاں مضبوط ہیں اور کہاں اختلاف باقی ہے۔ ٹھوس مثالیں دکھاتی ہیں کہ عمومی اصول حقیقی حالات میں کیسے کام کرتے ہیں۔",
		conclusion:   "خلاصہ یہ کہ %[1]s محتاط مطالعے کا تقاضا کرتا ہے۔ پچھلے حصوں میں بنیادی اصطلاحات کی تعریف کی گئی، %[2]s میں اہم ترین عوامل کا جائزہ لیا گیا، اور عملی استعمال اور ان کی حدود پر غور کیا گیا۔ بنیادی سبق یہ ہے کہ مضبوط تحریر مخصوص رہتی ہے، دعووں کی حمایت شواہد سے کرتی ہے، اور استدلال کو آسان رکھتی ہے۔",
		longFillers: []string{
			"ایک اور نکتہ توجہ کا مستحق ہے۔ جو لوگ واضح اہداف کے ساتھ موضوع کا مطالعہ کرتے ہیں وہ بہتر نتائج حاصل کرتے ہیں، کیونکہ ہر فیصلے کو بیان کردہ مقصد کی روشنی میں جانچا جا سکتا ہے۔ مبہم اہداف ایسے نتائج کی طرف لے جاتے ہیں جو بظاہر درست لگتے ہیں مگر تصدیق سے محروم رہتے ہیں۔",
			"حدود کے کردار پر بھی غور ضروری ہے۔ وقت، لاگت، اور دستیاب ڈیٹا سب مل کر طے کرتے ہیں کہ حقیقت پسندانہ حل کیسا ہو سکتا ہے، اور انہیں نظر انداز کرنے سے ایسی سفارشات جنم لیتی ہیں جو عمل میں ناکام ہو جاتی ہیں۔ مضبوط تجزیہ اپنی حدود کھل کر بیان کرتا ہے۔",
			"قریبی تصورات سے موازنہ تصویر کو واضح کرتا ہے۔ جب دو طریقے ملتے جلتے نتائج کا وعدہ کرتے ہیں تو ان کے مفروضات کا فرق اکثر نتائج کے فرق سے زیادہ اہم ہوتا ہے۔ ان مفروضات کا آمنے سامنے جائزہ بتاتا ہے کہ کون سا طریقہ کس صورتِ حال کے لیے موزوں ہے۔",
		},
		shortFillers: []string{
			"یہ نکتہ مختصر اضافی توجہ کا مستحق ہے۔",
			"یہی استدلال ملتے جلتے حالات میں بھی لاگو ہوتا ہے۔",
			"محتاط قاری اس متوازی ساخت کو محسوس کرے گا۔",
		},
	},
	"Spanish": {
		abstract:     "Este trabajo examina %[1]s dentro del campo de %[2]s. Expone los conceptos centrales, revisa su aplicación práctica y pondera las principales limitaciones. El objetivo es ofrecer al lector una visión clara y estructurada del tema.",
		introduction: "%[1]s se ha convertido en un tema importante en %[2]s, y su estudio cuidadoso exige definiciones claras y ejemplos concretos. Este documento presenta las ideas clave paso a paso, desde los fundamentos hasta las aplicaciones. Cada sección se apoya en la anterior para que el argumento resulte fácil de seguir.",
		section:      "La sección sobre %[3]s sitúa %[1]s en un contexto más amplio. Identifica los supuestos que guían la práctica actual en %[2]s, explica los mecanismos en juego y señala dónde la evidencia es sólida y dónde sigue en disputa. Casos concretos ilustran cómo se comportan los principios generales bajo restricciones realistas.",
		conclusion:   "En resumen, %[1]s recompensa el estudio cuidadoso. Las secciones anteriores definieron los términos centrales, examinaron los mecanismos más relevantes en %[2]s y revisaron aplicaciones prácticas junto con sus límites. La lección principal es que el buen trabajo se mantiene específico y apoya sus afirmaciones con evidencia.",
		longFillers: []string{
			"Un punto adicional merece atención. Quienes abordan el tema con objetivos claros tienden a lograr mejores resultados, porque cada decisión puede contrastarse con un propósito declarado. Los objetivos vagos, en cambio, invitan a conclusiones que parecen plausibles pero resisten la verificación.",
			"También conviene señalar el papel de las restricciones. El tiempo, el costo y los datos disponibles determinan cómo puede ser una solución realista, e ignorarlos produce recomendaciones que fracasan en la práctica. Un análisis sólido declara sus restricciones con franqueza.",
			"La comparación con ideas vecinas afina el panorama. Cuando dos enfoques prometen resultados similares, las diferencias entre sus supuestos suelen importar más que las diferencias entre sus resultados. Examinar esos supuestos revela qué método conviene a cada situación.",
		},
		shortFillers: []string{
			"Este punto merece un breve énfasis adicional.",
			"El mismo razonamiento aplica en contextos afines.",
			"El lector atento notará la estructura paralela.",
		},
	},
	"French": {
		abstract:     "Ce travail examine %[1]s dans le domaine de %[2]s. Il expose les concepts centraux, passe en revue leur application pratique et pèse les principales limites. Le but est de donner au lecteur une vision claire et structurée du sujet.",
		introduction: "%[1]s est devenu un sujet important en %[2]s, et son étude attentive exige des définitions claires et des exemples concrets. Ce document présente les idées clés étape par étape, des fondements aux applications. Chaque section prend appui sur la précédente afin que le raisonnement reste facile à suivre.",
		section:      "La section sur %[3]s situe %[1]s dans un contexte plus large. Elle identifie les hypothèses qui guident la pratique actuelle en %[2]s, explique les mécanismes en jeu et signale où les preuves sont solides et où elles restent discutées. Des cas concrets montrent comment les principes généraux se comportent sous des contraintes réalistes.",
		conclusion:   "En résumé, %[1]s récompense une étude attentive. Les sections précédentes ont défini les termes centraux, examiné les mécanismes les plus importants en %[2]s et passé en revue des applications pratiques avec leurs limites. La leçon principale est que le bon travail reste précis et appuie ses affirmations sur des preuves.",
		longFillers: []string{
			"Un point supplémentaire mérite attention. Ceux qui abordent le sujet avec des objectifs clairs obtiennent de meilleurs résultats, car chaque décision peut être confrontée à un but déclaré. Des objectifs vagues, au contraire, invitent à des conclusions qui semblent plausibles mais résistent à la vérification.",
			"Il convient aussi de noter le rôle des contraintes. Le temps, le coût et les données disponibles déterminent à quoi peut ressembler une solution réaliste, et les ignorer produit des recommandations qui échouent en pratique. Une analyse solide énonce ses contraintes ouvertement.",
			"La comparaison avec des idées voisines affine le tableau. Quand deux approches promettent des résultats semblables, les différences entre leurs hypothèses comptent souvent plus que les différences entre leurs résultats. Examiner ces hypothèses révèle quelle méthode convient à chaque situation.",
		},
		shortFillers: []string{
			"Ce point mérite un bref accent supplémentaire.",
			"Le même raisonnement vaut dans des cadres proches.",
			"Le lecteur attentif notera la structure parallèle.",
		},
	},
}

func packFor(language string) languagePack {
	switch language {
	case "EnglishUK":
		return languagePacks["English"]
	default:
		if pack, ok := languagePacks[language]; ok {
			return pack
		}
		return languagePacks["English"]
	}
}

func (g *TemplateGenerator) Generate(_ context.Context, payload domain.GeneratePayload, seed int) (string, error) {
	pack := packFor(payload.Language)
	wr := TargetWordRange(payload.Pages, payload.Level, payload.Style)
	maxWords := wr.Max
	if strings.HasPrefix(strings.ToLower(payload.Style), "direct") {
		maxWords = wr.Target
	}

	sections := sectionTitles
	markers := 0
	if payload.IncludeImages {
		markers = payload.ImageCount
	}

	var body []string
	for i, title := range sections {
		part := "### " + title + "\n\n" + fmt.Sprintf(pack.section, payload.Topic, payload.Subject, strings.ToLower(title))
		if i < markers {
			part += "\n\n" + fmt.Sprintf(`[IMAGE: SECTION_TITLE=%q KEYWORDS=%q DESCRIPTION=%q]`,
				title, payload.Topic+", "+payload.Subject, "Illustration for the "+strings.ToLower(title)+" section on "+payload.Topic)
		}
		body = append(body, part)
	}

	head := []string{
		"# " + payload.Topic + " - " + payload.Subject,
		"## Abstract\n\n" + fmt.Sprintf(pack.abstract, payload.Topic, payload.Subject),
		"## Introduction\n\n" + fmt.Sprintf(pack.introduction, payload.Topic, payload.Subject),
		"## Main Body",
	}

	tail := []string{"## Conclusion\n\n" + fmt.Sprintf(pack.conclusion, payload.Topic, payload.Subject)}
	if payload.References {
		tail = append(tail, referencesSection(payload))
	}

	discussion := []string{"### Discussion"}
	compose := func() string {
		parts := append([]string{}, head...)
		parts = append(parts, body...)
		parts = append(parts, strings.Join(discussion, "\n\n"))
		parts = append(parts, tail...)
		return strings.Join(parts, "\n\n")
	}

	doc := compose()
	long, short := seed, seed
	for CountWords(doc) < wr.Min {
		deficit := wr.Min - CountWords(doc)
		if deficit > 80 && CountWords(doc)+60 < maxWords {
			discussion = append(discussion, pack.longFillers[long%len(pack.longFillers)])
			long++
		} else {
			discussion = append(discussion, pack.shortFillers[short%len(pack.shortFillers)])
			short++
		}
		doc = compose()
	}
	return doc, nil
}

func referencesSection(payload domain.GeneratePayload) string {
	style := payload.CitationStyle
	if style == "" {
		style = "APA"
	}
	lines := []string{
		"## References",
		fmt.Sprintf("- Standard introductory texts on %s, cited in %s format.", payload.Subject, style),
		fmt.Sprintf("- Recent survey articles covering %s and adjacent methods.", payload.Topic),
		"- Course materials and lecture notes supplied with the assignment brief.",
	}
	return strings.Join(lines, "\n")
}
