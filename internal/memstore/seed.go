package memstore

import (
	"context"
	"time"

	"github.com/docuchat/docuchat/internal/chat"
	"github.com/docuchat/docuchat/internal/source"
)

// Well-known seed ids, stable so demo links survive restarts.
const (
	ProfileResearch = "profile-research"
	ProfileTechDocs = "profile-techdocs"
	ProfileLegal    = "profile-legal"
	PromptGeneral   = "prompt-general"
	PromptResearch  = "prompt-research"
	PromptTechnical = "prompt-technical"
	PromptLegal     = "prompt-legal"
)

// Seed populates the store with the demo datasets: three document profiles,
// four system prompts (one inactive), and a sample conversation in the
// research profile whose assistant answer carries two cited sources.
func Seed(s *Store) {
	now := time.Now()

	s.AddProfile(&chat.Profile{
		ID:          ProfileResearch,
		Name:        "Research Assistant",
		Description: "Academic research and analysis",
		CreatedAt:   now.Add(-72 * time.Hour),
	}, 15)
	s.AddProfile(&chat.Profile{
		ID:          ProfileTechDocs,
		Name:        "Technical Documentation",
		Description: "Software development and API docs",
		CreatedAt:   now.Add(-48 * time.Hour),
	}, 8)
	s.AddProfile(&chat.Profile{
		ID:          ProfileLegal,
		Name:        "Legal Analysis",
		Description: "Legal document review and analysis",
		CreatedAt:   now.Add(-24 * time.Hour),
	}, 23)

	s.AddPrompt(&chat.SystemPrompt{
		ID:          PromptGeneral,
		Name:        "General Assistant",
		Description: "Helpful, harmless, and honest responses",
		PromptText:  "You are a helpful AI assistant. Provide accurate, informative, and well-structured responses based on the provided context. Be concise yet comprehensive, and always cite your sources when referencing specific documents.",
		IsActive:    true,
		CreatedAt:   now.Add(-72 * time.Hour),
	})
	s.AddPrompt(&chat.SystemPrompt{
		ID:          PromptResearch,
		Name:        "Research Analyst",
		Description: "Academic and research-focused responses",
		PromptText:  "You are a research analyst with expertise in academic writing and analysis. Provide detailed, evidence-based analysis with proper citations and academic rigor. Structure your responses with clear methodology, findings, and conclusions.",
		IsActive:    true,
		CreatedAt:   now.Add(-72 * time.Hour),
	})
	s.AddPrompt(&chat.SystemPrompt{
		ID:          PromptTechnical,
		Name:        "Technical Expert",
		Description: "Technical documentation and code assistance",
		PromptText:  "You are a technical expert specializing in software development and system architecture. Provide precise, actionable technical guidance with code examples and best practices.",
		IsActive:    false,
		CreatedAt:   now.Add(-72 * time.Hour),
	})
	s.AddPrompt(&chat.SystemPrompt{
		ID:          PromptLegal,
		Name:        "Legal Advisor",
		Description: "Legal document analysis",
		PromptText:  "You are a legal advisor assistant. Analyze legal documents with attention to compliance, risks, and regulatory requirements. Always include disclaimers about seeking professional legal counsel.",
		IsActive:    true,
		CreatedAt:   now.Add(-72 * time.Hour),
	})

	seedConversation(s)
}

// seedConversation creates the sample machine-learning exchange in the
// research profile.
func seedConversation(s *Store) {
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, ProfileResearch,
		"What are the key principles of machine learning?", PromptGeneral)
	if err != nil {
		return
	}

	_, _ = s.CreateMessage(ctx, conv.ID, chat.CreateMessageParams{
		Role:           chat.RoleUser,
		Content:        "What are the key principles of machine learning?",
		SystemPromptID: PromptGeneral,
	})
	_, _ = s.CreateMessage(ctx, conv.ID, chat.CreateMessageParams{
		Role: chat.RoleAssistant,
		Content: "Machine learning is built on several fundamental principles:\n\n" +
			"1. Data-Driven Learning: algorithms learn patterns from data rather than being explicitly programmed.\n" +
			"2. Generalization: models should perform well on unseen data, balancing complexity against overfitting.\n" +
			"3. Feature Engineering: selecting and transforming relevant features from raw data is crucial.\n" +
			"4. Iterative Improvement: development cycles through data collection, training, evaluation, and refinement.",
		SystemPromptID: PromptGeneral,
		Sources: []source.Source{
			{
				ID:         "src-statistical-learning",
				Title:      "Introduction to Statistical Learning",
				Excerpt:    "Statistical learning refers to a vast set of tools for understanding data...",
				Page:       15,
				Confidence: 0.92,
			},
			{
				ID:         "src-pattern-recognition",
				Title:      "Pattern Recognition and Machine Learning",
				Excerpt:    "The goal of machine learning is to build computer systems that can adapt and learn from their experience...",
				Page:       3,
				Confidence: 0.88,
			},
		},
	})
}
