// Package repository define las interfaces de acceso a datos y los tipos
// de dominio compartidos por todas las implementaciones de storage.
//
// Las implementaciones concretas viven en internal/store/pg. Los tests
// usan fakes en memoria que implementan estas mismas interfaces.
package repository
