package models

import "time"

// Keyword is a canonical token shared by capabilities and challenges.
type Keyword struct {
	ID        uint      `gorm:"primaryKey" json:"palabra_clave_id"`
	Word      string    `gorm:"size:128;uniqueIndex;not null" json:"palabra"`
	CreatedAt time.Time `json:"fecha_creacion"`
}

// TableName pins the keyword table name.
func (Keyword) TableName() string {
	return "keywords"
}

// Capability describes what a researcher can offer.
type Capability struct {
	ID             uint      `gorm:"primaryKey" json:"capacidad_id"`
	ResearcherID   uint      `gorm:"index;not null" json:"investigador_id"`
	Description    string    `gorm:"type:text;not null" json:"descripcion_capacidad"`
	ProblemsSolved string    `gorm:"type:text" json:"problemas_que_resuelven"`
	ProjectTypes   string    `gorm:"type:text" json:"tipos_proyectos"`
	Equipment      string    `gorm:"type:text" json:"equipamiento"`
	InternalCode   string    `gorm:"size:64" json:"clave_interna"`
	Keywords       []Keyword `gorm:"many2many:capability_keywords;" json:"palabras_clave"`
	CreatedAt      time.Time `json:"fecha_creacion"`
	UpdatedAt      time.Time `json:"fecha_actualizacion"`
}

// TableName pins the capability table name.
func (Capability) TableName() string {
	return "capabilities"
}

// Challenge describes a problem posted by an external participant.
type Challenge struct {
	ID                 uint      `gorm:"primaryKey" json:"desafio_id"`
	ParticipantID      uint      `gorm:"index;not null" json:"participante_id"`
	Title              string    `gorm:"size:255;not null" json:"titulo"`
	Description        string    `gorm:"type:text" json:"descripcion"`
	Impact             string    `gorm:"type:text" json:"impacto"`
	AttemptedSolutions string    `gorm:"type:text" json:"soluciones_intentadas"`
	ImaginedSolution   string    `gorm:"type:text" json:"solucion_imaginada"`
	Keywords           []Keyword `gorm:"many2many:challenge_keywords;" json:"palabras_clave"`
	CreatedAt          time.Time `json:"fecha_creacion"`
	UpdatedAt          time.Time `json:"fecha_actualizacion"`
}

// TableName pins the challenge table name.
func (Challenge) TableName() string {
	return "challenges"
}
