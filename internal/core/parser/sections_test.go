package parser

import "testing"

const fullReply = `**Corrected Entry:**
Hier, je suis allé au marché avec ma sœur.

**Key Corrections:**
- "je suis allé" — aller takes être in the passé composé
- "avec ma sœur" — sœur is feminine

**Phrase to Remember:**
"faire les courses" — to go grocery shopping

**Vocabulary Enhancer:**
- flâner — to stroll

**Follow-up:**
Qu'est-ce que tu as acheté ?

**Follow-up Translation:**
What did you buy?`

func TestParse_AllSections(t *testing.T) {
	s := Parse(fullReply)

	want := map[Name]string{
		Corrected:           "Hier, je suis allé au marché avec ma sœur.",
		Phrase:              `"faire les courses" — to go grocery shopping`,
		Vocab:               "- flâner — to stroll",
		Followup:            "Qu'est-ce que tu as acheté ?",
		FollowupTranslation: "What did you buy?",
	}
	for name, text := range want {
		got, ok := s.Get(name)
		if !ok {
			t.Fatalf("%s: expected present", name)
		}
		if got != text {
			t.Fatalf("%s: got %q want %q", name, got, text)
		}
	}
	if got, ok := s.Get(Corrections); !ok || got == "" {
		t.Fatalf("corrections missing")
	}
	if len(s.Names()) != 6 {
		t.Fatalf("expected 6 sections, got %v", s.Names())
	}
}

func TestParse_FollowupOnly(t *testing.T) {
	s := Parse("**Follow-up:**\nHow was your day?")

	if got, ok := s.Get(Followup); !ok || got != "How was your day?" {
		t.Fatalf("followup: got %q ok=%v", got, ok)
	}
	for _, n := range []Name{Corrected, Corrections, Phrase, Vocab, FollowupTranslation} {
		if _, ok := s.Get(n); ok {
			t.Fatalf("%s should be absent", n)
		}
	}
}

func TestParse_StopsAtNextKnownHeader(t *testing.T) {
	s := Parse("**Corrected Entry:**\nJe suis allé.\n**Follow-up:**\nEt toi?")

	if s.Corrected.Text != "Je suis allé." {
		t.Fatalf("corrected: got %q", s.Corrected.Text)
	}
	if s.Followup.Text != "Et toi?" {
		t.Fatalf("followup: got %q", s.Followup.Text)
	}
}

func TestParse_FollowupDoesNotSwallowTranslationHeader(t *testing.T) {
	s := Parse("**Follow-up:** Tu aimes lire ?\n**Follow-up Translation:** Do you like reading?")

	if s.Followup.Text != "Tu aimes lire ?" {
		t.Fatalf("followup: got %q", s.Followup.Text)
	}
	if s.FollowupTranslation.Text != "Do you like reading?" {
		t.Fatalf("translation: got %q", s.FollowupTranslation.Text)
	}
}

func TestParse_HeaderVariants(t *testing.T) {
	cases := []struct {
		name  string
		reply string
	}{
		{"bold colon inside", "**Corrected Entry:** Bonjour."},
		{"bold colon outside", "**Corrected Entry**: Bonjour."},
		{"plain", "Corrected Entry: Bonjour."},
		{"lower case", "**corrected entry:** Bonjour."},
		{"markdown heading", "### Corrected Entry:\nBonjour."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := Parse(tc.reply)
			if s.Corrected.Text != "Bonjour." {
				t.Fatalf("got %q", s.Corrected.Text)
			}
		})
	}
}

func TestParse_NoHeaders(t *testing.T) {
	for _, reply := range []string{"", "   ", "Bravo ! Rien à corriger.", "**bold** but no header"} {
		s := Parse(reply)
		if !s.Empty() {
			t.Fatalf("%q: expected no sections, got %v", reply, s.Names())
		}
	}
}

func TestParse_BlankBodyIsAbsent(t *testing.T) {
	s := Parse("**Corrected Entry:**\n\n**Follow-up:** Et demain ?")

	if s.Corrected.Present {
		t.Fatalf("blank corrected section should be absent")
	}
	if !s.Followup.Present {
		t.Fatalf("followup should be present")
	}
}

func TestParse_PerfectSubmissionOmitsCorrections(t *testing.T) {
	s := Parse("Parfait !\n**Vocabulary Enhancer:**\n- épanoui — fulfilled\n**Follow-up:** Et ensuite ?")

	if s.Corrected.Present || s.Corrections.Present || s.Phrase.Present {
		t.Fatalf("correction sections should be absent: %v", s.Names())
	}
	if s.Vocab.Text != "- épanoui — fulfilled" {
		t.Fatalf("vocab: got %q", s.Vocab.Text)
	}
	if got := s.Map(); len(got) != 2 {
		t.Fatalf("map: got %v", got)
	}
}

func TestParse_NameInProseIsNotAHeader(t *testing.T) {
	s := Parse("**Corrected Entry:**\nJ'ai écrit: follow up: demain.\n**Key Corrections:**\n- x")

	if s.Corrected.Text != "J'ai écrit: follow up: demain." {
		t.Fatalf("corrected: got %q", s.Corrected.Text)
	}
	if s.Followup.Present {
		t.Fatalf("followup should be absent, got %q", s.Followup.Text)
	}
	if s.Corrections.Text != "- x" {
		t.Fatalf("corrections: got %q", s.Corrections.Text)
	}
}

func TestParse_PlainHeaderAfterIndent(t *testing.T) {
	s := Parse("Corrected Entry: Bonjour.\n  Follow-up: Et toi ?")

	if s.Corrected.Text != "Bonjour." || s.Followup.Text != "Et toi ?" {
		t.Fatalf("got corrected=%q followup=%q", s.Corrected.Text, s.Followup.Text)
	}
}

func TestParse_CombinedVocabularyHeader(t *testing.T) {
	s := Parse("**Vocabulary Enhancer/Follow-up:**\n- mot — word\n**Follow-up Translation:** And you?")

	if s.Vocab.Text != "- mot — word" {
		t.Fatalf("vocab: got %q", s.Vocab.Text)
	}
	if s.Followup.Present {
		t.Fatalf("followup should be absent, got %q", s.Followup.Text)
	}
	if s.FollowupTranslation.Text != "And you?" {
		t.Fatalf("translation: got %q", s.FollowupTranslation.Text)
	}
}
